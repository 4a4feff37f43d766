package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatch/internal/domain/models"
)

func keys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("k%d", i+1)
	}
	return out
}

func TestPlanSingleBatchHasNoAnchor(t *testing.T) {
	p := NewBatchPlanner(5)
	batches, err := p.Plan(keys(5), "")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, keys(5), batches[0].Keys)
	assert.Empty(t, batches[0].Anchor)
}

func TestPlanEmptyKeys(t *testing.T) {
	batches, err := NewBatchPlanner(5).Plan(nil, "")
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPlanRepeatsAnchor(t *testing.T) {
	p := NewBatchPlanner(5)
	batches, err := p.Plan(keys(9), "")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"k1", "k2", "k3", "k4", "k5"}, batches[0].Keys)
	assert.Equal(t, []string{"k1", "k6", "k7", "k8", "k9"}, batches[1].Keys)
	assert.Equal(t, []string{"k6", "k7", "k8", "k9"}, batches[1].NewKeys())
}

func TestPlanProperties(t *testing.T) {
	for _, capacity := range []int{2, 3, 5} {
		for n := 1; n <= 17; n++ {
			ks := keys(n)
			batches, err := NewBatchPlanner(capacity).Plan(ks, "")
			require.NoError(t, err, "capacity=%d n=%d", capacity, n)
			assert.NoError(t, ValidatePlan(ks, batches, capacity), "capacity=%d n=%d", capacity, n)
			if n > capacity {
				for _, b := range batches {
					assert.Equal(t, "k1", b.Keys[0])
				}
			}
		}
	}
}

func TestPlanExplicitAnchor(t *testing.T) {
	batches, err := NewBatchPlanner(3).Plan([]string{"a", "b", "c", "d"}, "c")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"c", "a", "b"}, batches[0].Keys)
	assert.Equal(t, []string{"c", "d"}, batches[1].Keys)
}

func TestPlanRejectsBadInput(t *testing.T) {
	_, err := NewBatchPlanner(5).Plan([]string{"a", "b"}, "z")
	assert.True(t, errors.Is(err, models.ErrConfig))

	_, err = NewBatchPlanner(5).Plan([]string{"a", "a"}, "")
	assert.True(t, errors.Is(err, models.ErrConfig))

	_, err = NewBatchPlanner(1).Plan([]string{"a", "b"}, "")
	assert.True(t, errors.Is(err, models.ErrConfig))
}

func TestValidatePlanCatchesMissingAnchor(t *testing.T) {
	batches := []*models.Batch{
		{Number: 1, Keys: []string{"a", "b"}, Anchor: "a"},
		{Number: 2, Keys: []string{"c"}, Anchor: "a"},
	}
	assert.Error(t, ValidatePlan([]string{"a", "b", "c"}, batches, 2))
	assert.Panics(t, func() { mustValidPlan([]string{"a", "b", "c"}, batches, 2) })
}
