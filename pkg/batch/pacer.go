package batch

import (
	"context"
	"time"
)

// Fixed inter-item delays. Creation is paced harder than removal because the
// create path issues two mutating calls per item.
const (
	CreateDelay = 500 * time.Millisecond
	RemoveDelay = 300 * time.Millisecond
)

// Pacer throttles the workflow between items. Injectable so tests run
// without wall-clock waits.
type Pacer interface {
	// Pause blocks for d or until the context is cancelled.
	Pause(ctx context.Context, d time.Duration) error
}

// SleepPacer is the real wall-clock pacer.
type SleepPacer struct{}

// Pause implements Pacer.
func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopPacer skips all pauses (for tests).
type NopPacer struct{}

// Pause implements Pacer.
func (NopPacer) Pause(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
