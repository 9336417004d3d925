package pipeline

import "sync/atomic"

// BlockCounter tracks consecutive bot-block detections across all workers.
// Crossing the threshold flips the run into conservative mode; any valid
// fetch resets the streak but not the mode.
type BlockCounter struct {
	threshold int64
	streak    atomic.Int64
	tripped   atomic.Bool
}

// NewBlockCounter builds a counter; threshold <= 0 disables tripping.
func NewBlockCounter(threshold int) *BlockCounter {
	return &BlockCounter{threshold: int64(threshold)}
}

// Hit records one bot-block detection and reports whether the run is now in
// conservative mode.
func (b *BlockCounter) Hit() bool {
	n := b.streak.Add(1)
	if b.threshold > 0 && n >= b.threshold {
		b.tripped.Store(true)
	}
	return b.tripped.Load()
}

// Reset clears the consecutive streak after a successful fetch.
func (b *BlockCounter) Reset() { b.streak.Store(0) }

// Tripped reports whether conservative mode is active.
func (b *BlockCounter) Tripped() bool { return b.tripped.Load() }

// Progress exposes run counters for the status API. All methods are safe
// for concurrent use.
type Progress struct {
	total     atomic.Int64
	processed atomic.Int64
	uncertain atomic.Int64
}

// ProgressSnapshot is a point-in-time view of the run.
type ProgressSnapshot struct {
	Total     int64 `json:"total"`
	Processed int64 `json:"processed"`
	Uncertain int64 `json:"uncertain"`
	Remaining int64 `json:"remaining"`
}

func (p *Progress) SetTotal(n int)  { p.total.Store(int64(n)) }
func (p *Progress) MarkProcessed()  { p.processed.Add(1) }
func (p *Progress) MarkUncertain()  { p.uncertain.Add(1) }

// Snapshot returns the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	total, processed := p.total.Load(), p.processed.Load()
	return ProgressSnapshot{
		Total:     total,
		Processed: processed,
		Uncertain: p.uncertain.Load(),
		Remaining: total - processed,
	}
}
