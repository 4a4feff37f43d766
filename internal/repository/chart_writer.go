package repository

import (
    "bytes"
    "context"
    "fmt"
    "image"
    "image/color"
    "image/draw"
    "image/png"
    "io"
    "path/filepath"
    "strings"
    "time"

    "github.com/wcharczuk/go-chart/v2"
    "github.com/wcharczuk/go-chart/v2/drawing"
    "golang.org/x/image/font"
    "golang.org/x/image/font/basicfont"
    "golang.org/x/image/math/fixed"

    "MarketWatch/internal/domain/models"
    drepo "MarketWatch/internal/domain/repository"
    "MarketWatch/pkg/logger"
)

var palette = []drawing.Color{
    chart.ColorBlue,
    chart.ColorCyan,
    chart.ColorRed,
    chart.ColorOrange,
    chart.ColorGreen,
    chart.ColorAlternateGray,
    chart.ColorYellow,
}

// ChartWriter renders the panel as a two-axis line chart. Columns declared on
// the left axis share one scale, right-axis columns the other.
type ChartWriter struct {
    dir    string
    name   string
    title  string
    width  int
    height int
    log    *logger.Logger
}

func NewChartWriter(dir, name, title string, width, height int, log *logger.Logger) drepo.ArtifactWriter {
    return &ChartWriter{dir: dir, name: name, title: title, width: width, height: height, log: log.With("chart")}
}

func (w *ChartWriter) Name() string { return "chart" }

func (w *ChartWriter) Write(ctx context.Context, res *models.Result) (string, error) {
    if err := ctx.Err(); err != nil {
        return "", err
    }

    var buf bytes.Buffer
    if res.NoData() {
        if err := png.Encode(&buf, placeholder(w.width, w.height, "No data")); err != nil {
            return "", fmt.Errorf("chart placeholder: %w", err)
        }
    } else if err := w.render(&buf, res); err != nil {
        // a degenerate panel (e.g. one flat row) must still leave an image behind
        w.log.Warn("chart render failed, writing placeholder", logger.Error(err))
        buf.Reset()
        if err := png.Encode(&buf, placeholder(w.width, w.height, "Chart unavailable")); err != nil {
            return "", fmt.Errorf("chart placeholder: %w", err)
        }
    }

    path := filepath.Join(w.dir, w.name+".png")
    err := writeAtomic(path, func(out io.Writer) error {
        _, err := io.Copy(out, &buf)
        return err
    })
    if err != nil {
        return "", err
    }
    w.log.Info("artifact written", logger.String("path", path), logger.Bool("placeholder", res.NoData()))
    return path, nil
}

func (w *ChartWriter) render(out io.Writer, res *models.Result) error {
    p := res.Panel
    times := p.Index()
    if len(times) == 1 {
        // go-chart needs a non-zero x range
        times = append(times, times[0].Add(24*time.Hour))
    }

    var (
        series      []chart.Series
        left, right []string
    )
    for i, name := range p.Columns() {
        vals, _ := p.Column(name)
        if len(vals) == 1 {
            vals = append(vals, vals[0])
        }
        spec, _ := res.ColumnSpec(name)
        axis := chart.YAxisPrimary
        if spec.Axis == models.AxisLeft {
            axis = chart.YAxisSecondary
            left = appendUnique(left, string(spec.Unit))
        } else {
            right = appendUnique(right, string(spec.Unit))
        }
        style := chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2}
        if strings.HasSuffix(name, "_avg") {
            style.StrokeDashArray = []float64{6, 4}
        }
        series = append(series, chart.TimeSeries{Name: name, XValues: times, YValues: vals, YAxis: axis, Style: style})
    }

    graph := chart.Chart{
        Title:          w.title,
        Width:          w.width,
        Height:         w.height,
        Background:     chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
        XAxis:          chart.XAxis{Name: "Date", ValueFormatter: chart.TimeDateValueFormatter},
        YAxis:          chart.YAxis{Name: axisLabel(right)},
        YAxisSecondary: chart.YAxis{Name: axisLabel(left)},
        Series:         series,
    }
    graph.Elements = []chart.Renderable{chart.Legend(&graph)}
    return graph.Render(chart.PNG, out)
}

func axisLabel(units []string) string {
    return strings.Join(units, " / ")
}

func appendUnique(xs []string, x string) []string {
    for _, v := range xs {
        if v == x {
            return xs
        }
    }
    return append(xs, x)
}

// placeholder draws text centred on a plain background.
func placeholder(w, h int, text string) image.Image {
    img := image.NewRGBA(image.Rect(0, 0, w, h))
    draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 245, G: 245, B: 245, A: 255}), image.Point{}, draw.Src)

    face := basicfont.Face7x13
    dr := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{R: 60, G: 60, B: 60, A: 255}), Face: face}
    tw := dr.MeasureString(text).Ceil()
    x := (w - tw) / 2
    y := (h + face.Metrics().Ascent.Ceil()) / 2
    dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
    dr.DrawString(text)
    return img
}
