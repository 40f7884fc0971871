package store

// RunID identifies a persisted run. IDs are assigned by the database,
// monotonically increasing, and never reused.
type RunID = uint64

// Run records one benchmarking attempt of one
// (hostname, language, toolchain label, benchmark name) identity.
// Runs are an append-only log; they are never mutated or deleted.
type Run struct {
	ID             RunID  `gorm:"primaryKey"`
	Hostname       string `gorm:"index:idx_run_identity"`
	Language       string `gorm:"index:idx_run_identity"`
	ToolchainLabel string `gorm:"index:idx_run_identity"`
	BenchmarkName  string `gorm:"index:idx_run_identity"`

	// CreatedAt is unix seconds, assigned by the store at insert time.
	CreatedAt int64 `gorm:"autoCreateTime"`

	Samples []Sample `gorm:"foreignKey:RunID"`
}

// Sample is one duration measurement belonging to exactly one Run. The
// surrogate ID exists only to preserve insertion order across drivers.
type Sample struct {
	ID         uint64 `gorm:"primaryKey"`
	RunID      RunID  `gorm:"index;not null"`
	DurationNs int64
}

// Durations returns the run's sample durations in insertion order.
func (r *Run) Durations() []int64 {
	out := make([]int64, 0, len(r.Samples))
	for _, s := range r.Samples {
		out = append(out, s.DurationNs)
	}

	return out
}
