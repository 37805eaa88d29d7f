package services

import (
	"sync"
)

// progressTracker folds out-of-order batch completions into the highest
// contiguous confirmed height. Batches may finish in any order under the
// worker pool, but a checkpoint must never advance past a gap: a height is
// confirmed only once every height below it is confirmed too.
type progressTracker struct {
	mu sync.Mutex
	// confirmed is the highest height with no gaps below it
	confirmed int64
	// pending buffers completed ranges that are still waiting for a lower
	// range to finish
	pending map[int64]int64 // start height -> end height
}

// newProgressTracker starts tracking above baseHeight: baseHeight itself is
// considered already confirmed.
func newProgressTracker(baseHeight int64) *progressTracker {
	return &progressTracker{
		confirmed: baseHeight,
		pending:   make(map[int64]int64),
	}
}

// Confirm records that [start, end] has been fully written and returns the
// new highest contiguous confirmed height. If the range does not touch the
// confirmed frontier it is buffered and the frontier is unchanged.
func (p *progressTracker) Confirm(start, end int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending[start] = end

	// drain every buffered range that now connects to the frontier
	for {
		end, ok := p.pending[p.confirmed+1]
		if !ok {
			break
		}
		delete(p.pending, p.confirmed+1)
		p.confirmed = end
	}

	return p.confirmed
}

// Confirmed returns the current highest contiguous confirmed height.
func (p *progressTracker) Confirmed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirmed
}
