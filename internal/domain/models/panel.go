package models

import (
	"fmt"
	"time"
)

// Panel is the aligned monthly table. Columns keep their declaration order
// and all share the same index.
type Panel struct {
	index   []time.Time
	names   []string
	columns map[string][]float64
}

// Column is one named, fully indexed panel column.
type Column struct {
	Name   string
	Values []float64
}

// NewPanel validates that every column matches the index length and that the
// index is strictly increasing.
func NewPanel(index []time.Time, columns []Column) (*Panel, error) {
	for i := 1; i < len(index); i++ {
		if !index[i-1].Before(index[i]) {
			return nil, fmt.Errorf("panel index not strictly increasing at %s", index[i].Format(time.DateOnly))
		}
	}
	p := &Panel{
		index:   append([]time.Time(nil), index...),
		names:   make([]string, 0, len(columns)),
		columns: make(map[string][]float64, len(columns)),
	}
	for _, c := range columns {
		if len(c.Values) != len(index) {
			return nil, fmt.Errorf("panel column %s has %d values for %d rows", c.Name, len(c.Values), len(index))
		}
		if _, dup := p.columns[c.Name]; dup {
			return nil, fmt.Errorf("panel column %s declared twice", c.Name)
		}
		p.names = append(p.names, c.Name)
		p.columns[c.Name] = append([]float64(nil), c.Values...)
	}
	return p, nil
}

// NoDataPanel is the sentinel returned when every configured source failed.
func NoDataPanel() *Panel {
	return &Panel{columns: map[string][]float64{}}
}

// NoData reports whether p is the "no data" sentinel.
func (p *Panel) NoData() bool { return p == nil || len(p.names) == 0 || len(p.index) == 0 }

// Len returns the number of rows.
func (p *Panel) Len() int {
	if p == nil {
		return 0
	}
	return len(p.index)
}

// Index returns the month-end timestamps.
func (p *Panel) Index() []time.Time { return append([]time.Time(nil), p.index...) }

// Columns returns the column names in declaration order.
func (p *Panel) Columns() []string { return append([]string(nil), p.names...) }

// Has reports whether a column is present.
func (p *Panel) Has(name string) bool {
	_, ok := p.columns[name]
	return ok
}

// Column returns the values of a column and whether the column is present.
func (p *Panel) Column(name string) ([]float64, bool) {
	v, ok := p.columns[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Value returns the cell at row i of column name.
func (p *Panel) Value(name string, i int) (float64, bool) {
	v, ok := p.columns[name]
	if !ok || i < 0 || i >= len(v) {
		return 0, false
	}
	return v[i], true
}
