package repository

import (
    "context"
    "fmt"
    "io"
    "path/filepath"
    "strings"

    "github.com/xuri/excelize/v2"

    "MarketWatch/internal/domain/models"
    drepo "MarketWatch/internal/domain/repository"
    "MarketWatch/pkg/logger"
    "MarketWatch/pkg/util"
)

const (
    panelSheet  = "panel"
    reportSheet = "report"
)

// XLSXWriter exports the panel plus a run report sheet.
type XLSXWriter struct {
    dir  string
    name string
    log  *logger.Logger
}

func NewXLSXWriter(dir, name string, log *logger.Logger) drepo.ArtifactWriter {
    return &XLSXWriter{dir: dir, name: name, log: log.With("xlsx")}
}

func (w *XLSXWriter) Name() string { return "xlsx" }

func (w *XLSXWriter) Write(ctx context.Context, res *models.Result) (string, error) {
    if err := ctx.Err(); err != nil {
        return "", err
    }
    f := excelize.NewFile()
    defer f.Close()

    if err := f.SetSheetName(f.GetSheetName(0), panelSheet); err != nil {
        return "", fmt.Errorf("xlsx: %w", err)
    }
    if err := writePanelSheet(f, res); err != nil {
        return "", fmt.Errorf("xlsx panel: %w", err)
    }
    if _, err := f.NewSheet(reportSheet); err != nil {
        return "", fmt.Errorf("xlsx: %w", err)
    }
    if err := writeReportSheet(f, res); err != nil {
        return "", fmt.Errorf("xlsx report: %w", err)
    }
    f.SetActiveSheet(0)

    path := filepath.Join(w.dir, w.name+".xlsx")
    err := writeAtomic(path, func(out io.Writer) error {
        _, err := f.WriteTo(out)
        return err
    })
    if err != nil {
        return "", err
    }
    w.log.Info("artifact written", logger.String("path", path))
    return path, nil
}

func writePanelSheet(f *excelize.File, res *models.Result) error {
    header := []interface{}{"date"}
    if res.NoData() {
        for _, c := range res.Columns {
            header = append(header, c.Name)
        }
        return setRow(f, panelSheet, 1, header)
    }

    p := res.Panel
    cols := p.Columns()
    for _, c := range cols {
        header = append(header, c)
    }
    if err := setRow(f, panelSheet, 1, header); err != nil {
        return err
    }
    for i, t := range p.Index() {
        row := make([]interface{}, 0, len(cols)+1)
        row = append(row, util.FormatDate(t))
        for _, c := range cols {
            v, _ := p.Value(c, i)
            row = append(row, v)
        }
        if err := setRow(f, panelSheet, i+2, row); err != nil {
            return err
        }
    }
    return nil
}

func writeReportSheet(f *excelize.File, res *models.Result) error {
    rep := res.Report
    if rep == nil {
        rep = models.NewReport()
    }
    rows := [][]interface{}{
        {"window_start", util.FormatDate(res.Window[0])},
        {"window_end", util.FormatDate(res.Window[1])},
        {"generated_at", res.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
        {"no_data", res.NoData()},
        {},
        {"source", "status", "columns", "timeframe", "error"},
    }
    for _, s := range rep.Sources {
        status, errText := "ok", ""
        if !s.OK() {
            status = "failed"
        }
        if s.Err != nil {
            errText = s.Err.Error()
        }
        rows = append(rows, []interface{}{s.Name, status, strings.Join(s.Columns, ", "), rep.Timeframe[s.Name], errText})
    }

    rows = append(rows, []interface{}{}, []interface{}{"source", "batch", "keys", "scale", "overlap", "flag"})
    for _, b := range rep.Batches {
        rows = append(rows, []interface{}{b.Source, b.Number, strings.Join(b.Keys, ", "), b.Scale, b.Overlap, string(b.Flag)})
    }

    rows = append(rows, []interface{}{}, []interface{}{"diagnostic", "source", "detail"})
    for _, d := range rep.Diagnostics {
        rows = append(rows, []interface{}{string(d.Kind), d.Source, d.Detail})
    }

    for i, r := range rows {
        if len(r) == 0 {
            continue
        }
        if err := setRow(f, reportSheet, i+1, r); err != nil {
            return err
        }
    }
    return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
    cell, err := excelize.CoordinatesToCellName(1, row)
    if err != nil {
        return err
    }
    return f.SetSheetRow(sheet, cell, &values)
}
