package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	xhttp "MarketWatch/pkg/http"
	"MarketWatch/pkg/util"
)

const (
	DefaultBaseURL = "https://trends.google.com"
	// MaxKeys is the provider's comparison capacity.
	MaxKeys = 5

	timeseriesWidget = "TIMESERIES"
)

// Client implements a ComparisonProvider backed by the Google Trends widget API.
type Client struct {
	baseURL string
	hl      string
	tz      int
	http    *xhttp.Client
}

// New creates a new Google Trends ComparisonProvider.
func New(baseURL, hl string, tz int, httpClient *xhttp.Client) drepo.ComparisonProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hl: hl, tz: tz, http: httpClient}
}

func (c *Client) Name() string { return string(models.ProviderTrends) }

func (c *Client) MaxKeys() int { return MaxKeys }

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type timelinePoint struct {
	Time      string    `json:"time"`
	Value     []float64 `json:"value"`
	HasData   []bool    `json:"hasData"`
	IsPartial bool      `json:"isPartial"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

// FetchComparison returns one series per key, all on the same relative scale.
// The provider's partial-period flag is dropped.
func (c *Client) FetchComparison(ctx context.Context, keys []string, tf drepo.Timeframe, geo string) (map[string]*models.Series, error) {
	if len(keys) == 0 || len(keys) > MaxKeys {
		return nil, fmt.Errorf("trends: %d keys per request, want 1..%d", len(keys), MaxKeys)
	}

	w, err := c.explore(ctx, keys, tf, geo)
	if err != nil {
		return nil, err
	}

	body, err := c.http.Get(ctx, c.baseURL+"/trends/api/widgetdata/multiline", map[string][]string{
		"hl":    {c.hl},
		"tz":    {strconv.Itoa(c.tz)},
		"req":   {string(w.Request)},
		"token": {w.Token},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("trends multiline: %w", err)
	}

	var ml multilineResponse
	if err := json.Unmarshal(stripGuard(body), &ml); err != nil {
		return nil, fmt.Errorf("trends multiline decode: %w", err)
	}
	if len(ml.Default.TimelineData) == 0 {
		return nil, fmt.Errorf("trends %s: %w", strings.Join(keys, ","), models.ErrEmptyResult)
	}

	return toSeries(keys, ml.Default.TimelineData)
}

func (c *Client) explore(ctx context.Context, keys []string, tf drepo.Timeframe, geo string) (*widget, error) {
	req := exploreRequest{ComparisonItem: make([]comparisonItem, 0, len(keys))}
	for _, k := range keys {
		req.ComparisonItem = append(req.ComparisonItem, comparisonItem{Keyword: k, Geo: geo, Time: string(tf)})
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("trends explore encode: %w", err)
	}

	body, err := c.http.Get(ctx, c.baseURL+"/trends/api/explore", map[string][]string{
		"hl":  {c.hl},
		"tz":  {strconv.Itoa(c.tz)},
		"req": {string(raw)},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("trends explore: %w", err)
	}

	var er exploreResponse
	if err := json.Unmarshal(stripGuard(body), &er); err != nil {
		return nil, fmt.Errorf("trends explore decode: %w", err)
	}
	for i := range er.Widgets {
		if er.Widgets[i].ID == timeseriesWidget {
			return &er.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("trends explore: no %s widget", timeseriesWidget)
}

// stripGuard removes the anti-JSON-hijacking prefix ")]}'" before the payload.
func stripGuard(body []byte) []byte {
	if i := bytes.IndexByte(body, '{'); i > 0 {
		return body[i:]
	}
	return body
}

// toSeries builds one series per key. Sub-daily rows ("now 7-d" is hourly)
// are averaged into their day so every series stays keyed by date.
func toSeries(keys []string, rows []timelinePoint) (map[string]*models.Series, error) {
	type acc struct {
		sum float64
		n   int
	}
	days := make([]time.Time, 0, len(rows))
	cells := make([]map[time.Time]*acc, len(keys))
	for i := range cells {
		cells[i] = make(map[time.Time]*acc)
	}
	for _, row := range rows {
		ts, ok := util.ParseTime(row.Time)
		if !ok {
			return nil, fmt.Errorf("trends: bad timestamp %q", row.Time)
		}
		t := util.Day(ts)
		if n := len(days); n == 0 || !days[n-1].Equal(t) {
			days = append(days, t)
		}
		for i := range keys {
			if i >= len(row.Value) {
				continue
			}
			if i < len(row.HasData) && !row.HasData[i] {
				continue
			}
			a, ok := cells[i][t]
			if !ok {
				a = &acc{}
				cells[i][t] = a
			}
			a.sum += row.Value[i]
			a.n++
		}
	}

	freq := models.InferFrequency(days)
	out := make(map[string]*models.Series, len(keys))
	for i, k := range keys {
		points := make([]models.Point, 0, len(cells[i]))
		for _, d := range days {
			if a, ok := cells[i][d]; ok {
				points = append(points, models.Point{Time: d, Value: a.sum / float64(a.n)})
				delete(cells[i], d)
			}
		}
		s, err := models.NewSeries(k, freq, models.UnitIndex, points)
		if err != nil {
			return nil, fmt.Errorf("trends: %w", err)
		}
		out[k] = s
	}
	return out, nil
}
