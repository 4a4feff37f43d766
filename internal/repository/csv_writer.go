package repository

import (
    "context"
    "encoding/csv"
    "io"
    "path/filepath"
    "strconv"

    "MarketWatch/internal/domain/models"
    drepo "MarketWatch/internal/domain/repository"
    "MarketWatch/pkg/logger"
    "MarketWatch/pkg/util"
)

// CSVWriter exports the panel as date,<col1>,<col2>,... rows.
type CSVWriter struct {
    dir  string
    name string
    log  *logger.Logger
}

// NewCSVWriter creates a CSV writer for <dir>/<name>.csv.
func NewCSVWriter(dir, name string, log *logger.Logger) drepo.ArtifactWriter {
    return &CSVWriter{dir: dir, name: name, log: log.With("csv")}
}

func (w *CSVWriter) Name() string { return "csv" }

// Write renders res. The "no data" result becomes a header-only file listing
// every declared column.
func (w *CSVWriter) Write(ctx context.Context, res *models.Result) (string, error) {
    if err := ctx.Err(); err != nil {
        return "", err
    }
    path := filepath.Join(w.dir, w.name+".csv")
    err := writeAtomic(path, func(out io.Writer) error {
        cw := csv.NewWriter(out)
        p := res.Panel

        header := []string{"date"}
        if res.NoData() {
            for _, c := range res.Columns {
                header = append(header, c.Name)
            }
            if err := cw.Write(header); err != nil {
                return err
            }
            cw.Flush()
            return cw.Error()
        }

        cols := p.Columns()
        header = append(header, cols...)
        if err := cw.Write(header); err != nil {
            return err
        }
        row := make([]string, len(header))
        for i, t := range p.Index() {
            row[0] = util.FormatDate(t)
            for j, c := range cols {
                v, _ := p.Value(c, i)
                row[j+1] = strconv.FormatFloat(v, 'f', 6, 64)
            }
            if err := cw.Write(row); err != nil {
                return err
            }
        }
        cw.Flush()
        return cw.Error()
    })
    if err != nil {
        return "", err
    }
    w.log.Info("artifact written", logger.String("path", path), logger.Int("rows", res.Panel.Len()))
    return path, nil
}
