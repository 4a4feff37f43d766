package fred

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	xhttp "MarketWatch/pkg/http"
)

const DefaultBaseURL = "https://fred.stlouisfed.org"

// Client implements a LevelProvider backed by the FRED graph CSV endpoint.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// New creates a new FRED LevelProvider.
func New(baseURL string, httpClient *xhttp.Client) drepo.LevelProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Name() string { return string(models.ProviderFRED) }

// FetchSeries downloads one series for the closed range [start, end].
func (c *Client) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*models.Series, error) {
	body, err := c.http.Get(ctx, c.baseURL+"/graph/fredgraph.csv", map[string][]string{
		"id":   {seriesID},
		"cosd": {start.Format(time.DateOnly)},
		"coed": {end.Format(time.DateOnly)},
	}, map[string]string{"Accept": "text/csv"})
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	points, err := parseCSV(bytes.NewReader(body), start, end)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("fred %s: %w", seriesID, models.ErrEmptyResult)
	}

	times := make([]time.Time, len(points))
	for i, p := range points {
		times[i] = p.Time
	}
	return models.NewSeries(seriesID, models.InferFrequency(times), models.UnitLevel, points)
}

// parseCSV reads "DATE,<ID>" (or "observation_date,<ID>") rows. Missing
// observations are encoded as "." and skipped.
func parseCSV(r io.Reader, start, end time.Time) ([]models.Point, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	first := strings.ToLower(strings.TrimPrefix(header[0], "\ufeff"))
	if first != "date" && first != "observation_date" {
		return nil, fmt.Errorf("unexpected date column %q", header[0])
	}

	var points []models.Point
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 2 {
			continue
		}
		raw := strings.TrimSpace(rec[1])
		if raw == "" || raw == "." {
			continue
		}
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[0])
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q", line, raw)
		}
		points = append(points, models.Point{Time: t, Value: v})
	}
	return points, nil
}
