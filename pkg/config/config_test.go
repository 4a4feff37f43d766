package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatch/internal/domain/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 18, c.Run.MonthsBack)
	assert.Equal(t, 5, c.Run.BatchCapacity)
	assert.Equal(t, 3, c.Run.RetryAttempts)
	assert.Equal(t, 3*time.Second, c.Run.RetryPause)
	assert.Equal(t, 20.0, c.Run.UnitThreshold)
	assert.Equal(t, "en-US", c.Trends.HL)
	assert.Equal(t, 360, c.Trends.TZ)
	assert.True(t, c.Output.Bundle)
	assert.Len(t, c.Sources, 4)
	assert.Empty(t, c.Path)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Sources, c.Sources)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
run:
  months_back: 12
output:
  bundle: false
sources:
  - name: vix
    provider: fred
    series_id: VIXCLS
    axis: right
  - name: search
    provider: trends
    keywords: [a, b, c]
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Path)
	assert.Equal(t, 12, c.Run.MonthsBack)
	assert.Equal(t, 5, c.Run.BatchCapacity)
	assert.False(t, c.Output.Bundle)
	assert.True(t, c.Output.CSV)
	assert.Equal(t, "none", c.Sources[0].Transform)
	assert.Equal(t, "left", c.Sources[1].Axis)

	rc := c.RunConfig(time.Date(2024, 6, 30, 15, 4, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), rc.End)
	assert.Equal(t, models.AggregateLast, rc.Sources[0].Aggregation)
	assert.Equal(t, models.AggregateMean, rc.Sources[1].Aggregation)
	assert.Equal(t, models.UnitIndex, rc.Sources[1].Unit)
	assert.Equal(t, models.AxisRight, rc.Sources[0].Axis)

	cols := rc.Columns()
	require.Len(t, cols, 4)
	assert.Equal(t, "vix", cols[0].Name)
	assert.Equal(t, "a", cols[1].Name)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"anchor outside keywords": `
sources:
  - {name: s, provider: trends, keywords: [a, b], anchor: z}`,
		"duplicate source": `
sources:
  - {name: s, provider: fred, series_id: X}
  - {name: s, provider: fred, series_id: Y}`,
		"duplicate column": `
sources:
  - {name: a, provider: fred, series_id: X}
  - {name: s, provider: trends, keywords: [a]}`,
		"capacity too small": `
run: {batch_capacity: 1}
sources:
  - {name: s, provider: trends, keywords: [a, b]}`,
		"series id required": `
sources:
  - {name: s, provider: fred}`,
		"unknown provider": `
sources:
  - {name: s, provider: yahoo, series_id: X}`,
		"bad timeframe": `
sources:
  - {name: s, provider: trends, keywords: [a], timeframes: ["last week"]}`,
		"bad end date": `
run: {end_date: "30/06/2024"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfig), err.Error())
		})
	}
}

func TestValidationMessageNamesField(t *testing.T) {
	_, err := Load(writeConfig(t, "run: {months_back: 0}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run.MonthsBack must be greater than or equal to 1")
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("MARKETWATCH_KEYWORDS", "x, y ,z")
	t.Setenv("MARKETWATCH_MONTHS_BACK", "9")
	t.Setenv("MARKETWATCH_OUTPUT_DIR", "/tmp/out")
	t.Setenv("MARKETWATCH_LOG_LEVEL", "debug")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Run.MonthsBack)
	assert.Equal(t, "/tmp/out", c.Output.Dir)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, []string{"x", "y", "z"}, c.Sources[1].Keywords)
}

func TestEndDateOverride(t *testing.T) {
	c := Default()
	c.Run.EndDate = "2024-03-31"
	rc := c.RunConfig(time.Now())
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), rc.End)
	assert.Equal(t, time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC), rc.Start())
}

func TestExampleConfigParses(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "marketwatch.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Path)
	assert.NoError(t, c.Validate())
}
