package usecase

import (
	"fmt"

	"MarketWatch/internal/domain/models"
	"MarketWatch/pkg/logger"
)

// MergeEngine assembles produced columns into the final panel.
type MergeEngine struct {
	aligner *TemporalAligner
	log     *logger.Logger
}

func NewMergeEngine(aligner *TemporalAligner, log *logger.Logger) *MergeEngine {
	return &MergeEngine{aligner: aligner, log: log.With("merge")}
}

// Merge aligns every produced column and orders the panel by declaration.
// Declared columns that were not produced (or are empty) are absent. When no
// column was produced the "no data" sentinel panel is returned; an error
// means the aligned columns broke the panel invariants.
func (m *MergeEngine) Merge(declared []models.ColumnSpec, produced map[string]*models.Series) (*models.Panel, error) {
	ordered := make([]*models.Series, 0, len(declared))
	for _, c := range declared {
		s, ok := produced[c.Name]
		if !ok || s.Empty() {
			m.log.Debug("column absent", logger.String("column", c.Name), logger.String("source", c.Source))
			continue
		}
		ordered = append(ordered, s.WithKey(c.Name))
	}
	if len(ordered) == 0 {
		m.log.Warn("no configured source produced data")
		return models.NoDataPanel(), nil
	}

	aligned := m.aligner.Align(ordered)
	cols := make([]models.Column, 0, len(aligned.Columns))
	for _, c := range aligned.Columns {
		cols = append(cols, models.Column{Name: c.Key, Values: c.Values})
	}
	panel, err := models.NewPanel(aligned.Index, cols)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	m.log.Info("panel assembled",
		logger.Int("rows", panel.Len()),
		logger.Strings("columns", panel.Columns()),
	)
	return panel, nil
}
