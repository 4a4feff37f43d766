package usecase

import (
	"fmt"

	"MarketWatch/internal/domain/models"
)

// DefaultBatchCapacity is the comparison provider's per-request key limit.
const DefaultBatchCapacity = 5

// BatchPlanner splits a key set into capacity-limited batches that share an
// anchor key for later scale reconciliation.
type BatchPlanner struct {
	capacity int
}

// NewBatchPlanner creates a planner; capacity <= 0 selects the default.
func NewBatchPlanner(capacity int) *BatchPlanner {
	if capacity <= 0 {
		capacity = DefaultBatchCapacity
	}
	return &BatchPlanner{capacity: capacity}
}

// Capacity returns the maximum keys per batch.
func (p *BatchPlanner) Capacity() int { return p.capacity }

// Plan returns batches covering every key exactly once as a new member. When
// the keys fit one batch no anchor is assigned. anchor defaults to keys[0]
// and must belong to keys.
func (p *BatchPlanner) Plan(keys []string, anchor string) ([]*models.Batch, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, models.ConfigError("duplicate key %q", k)
		}
		seen[k] = struct{}{}
	}
	if anchor != "" {
		if _, ok := seen[anchor]; !ok {
			return nil, models.ConfigError("anchor %q is not one of the requested keys", anchor)
		}
	}

	if len(keys) <= p.capacity {
		return []*models.Batch{{Number: 1, Keys: append([]string(nil), keys...)}}, nil
	}
	if p.capacity < 2 {
		return nil, models.ConfigError("batch capacity %d cannot hold an anchor plus a new key", p.capacity)
	}

	if anchor == "" {
		anchor = keys[0]
	}
	rest := make([]string, 0, len(keys)-1)
	for _, k := range keys {
		if k != anchor {
			rest = append(rest, k)
		}
	}

	var batches []*models.Batch
	step := p.capacity - 1
	for i := 0; i < len(rest); i += step {
		end := i + step
		if end > len(rest) {
			end = len(rest)
		}
		members := append([]string{anchor}, rest[i:end]...)
		batches = append(batches, &models.Batch{Number: len(batches) + 1, Keys: members, Anchor: anchor})
	}
	return batches, nil
}

// ValidatePlan checks the plan invariants: every key is new exactly once,
// no batch exceeds capacity and, with more than one batch, every batch
// carries the anchor.
func ValidatePlan(keys []string, batches []*models.Batch, capacity int) error {
	want := make(map[string]int, len(keys))
	for _, k := range keys {
		want[k] = 0
	}
	for i, b := range batches {
		if b.Number != i+1 {
			return fmt.Errorf("batch %d numbered %d", i+1, b.Number)
		}
		if len(b.Keys) == 0 || len(b.Keys) > capacity {
			return fmt.Errorf("batch %d has %d keys, capacity %d", b.Number, len(b.Keys), capacity)
		}
		if len(batches) > 1 && !contains(b.Keys, b.Anchor) {
			return fmt.Errorf("batch %d is missing anchor %q", b.Number, b.Anchor)
		}
		for _, k := range b.NewKeys() {
			n, ok := want[k]
			if !ok {
				return fmt.Errorf("batch %d has unrequested key %q", b.Number, k)
			}
			want[k] = n + 1
		}
	}
	for k, n := range want {
		if n != 1 {
			return fmt.Errorf("key %q is new in %d batches", k, n)
		}
	}
	return nil
}

// mustValidPlan panics on a malformed plan; that is a programming error,
// not a data condition.
func mustValidPlan(keys []string, batches []*models.Batch, capacity int) {
	if err := ValidatePlan(keys, batches, capacity); err != nil {
		panic(fmt.Sprintf("malformed batch plan: %v", err))
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
