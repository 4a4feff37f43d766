package models

// Batch is a capacity-limited group of keys submitted to the comparison
// provider together. Every batch after the first repeats the anchor key.
type Batch struct {
	Number int      // 1-based position in the plan
	Keys   []string // anchor first when an anchor is set
	Anchor string   // empty when the whole key set fits one batch

	series map[string]*Series
	err    error
}

// NewKeys returns the keys this batch contributes for the first time.
func (b *Batch) NewKeys() []string {
	if b.Number == 1 || b.Anchor == "" {
		return append([]string(nil), b.Keys...)
	}
	out := make([]string, 0, len(b.Keys))
	for _, k := range b.Keys {
		if k != b.Anchor {
			out = append(out, k)
		}
	}
	return out
}

// Resolve stores the fetched series for the batch keys. Series for keys
// outside the batch are ignored.
func (b *Batch) Resolve(series map[string]*Series) {
	b.series = make(map[string]*Series, len(b.Keys))
	for _, k := range b.Keys {
		if s, ok := series[k]; ok && !s.Empty() {
			b.series[k] = s
		}
	}
	b.err = nil
}

// Fail marks the batch as failed.
func (b *Batch) Fail(err error) {
	b.series = nil
	b.err = err
}

// Err returns the failure recorded by Fail, if any.
func (b *Batch) Err() error { return b.err }

// Resolved reports whether the batch was fetched successfully.
func (b *Batch) Resolved() bool { return b.series != nil }

// Series returns the fetched series for key, if present.
func (b *Batch) Series(key string) (*Series, bool) {
	s, ok := b.series[key]
	return s, ok
}

// Outcome of a single fetch attempt.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
	OutcomeEmpty Outcome = "empty"
)

// FetchAttempt is the transient record that drives retry and backoff.
type FetchAttempt struct {
	Label   string // batch or series reference
	Attempt int
	Outcome Outcome
	Err     error
}
