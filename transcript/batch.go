// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/partnerops/npcusync/model"
	"go.uber.org/zap"
)

// BatchConfig shapes multi-person reconciliation runs.
type BatchConfig struct {
	// WindowSize is how many people reconcile concurrently.
	// (Optional) Defaults to 4.
	WindowSize int

	// WindowDelay is the pause between windows.
	// (Optional) Defaults to 500ms.
	WindowDelay time.Duration
}

func (c *BatchConfig) applyDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 4
	}
	if c.WindowDelay <= 0 {
		c.WindowDelay = 500 * time.Millisecond
	}
}

// Result is one person's reconciliation outcome. Err is set when that
// person's run failed; the rest of the batch is unaffected.
type Result struct {
	PersonID       string
	Certifications []model.Certification
	Summary        model.Summary
	Err            error
}

// Progress is emitted after each person completes, successfully or not.
type Progress struct {
	PersonID  string
	Completed int
	Total     int
	Err       error
}

// Batch runs the pipeline for many people in rate-limiter-friendly windows.
type Batch struct {
	pipeline *Pipeline
	logger   *zap.Logger
	config   BatchConfig
	sleep    func(context.Context, time.Duration) error
}

// NewBatch builds a batch runner over the given pipeline.
func NewBatch(pipeline *Pipeline, logger *zap.Logger, config BatchConfig) *Batch {
	config.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		pipeline: pipeline,
		logger:   logger,
		config:   config,
		sleep:    sleepContext,
	}
}

// Run reconciles every person, a window at a time, waiting for a full window
// before starting the next. One person's failure is captured in their Result
// and the batch continues. Progress events, when a channel is given, arrive
// once per person; the channel is closed when the batch finishes. Results
// come back in input order.
func (b *Batch) Run(ctx context.Context, personIDs []string, progress chan<- Progress) []Result {
	if progress != nil {
		defer close(progress)
	}

	results := make([]Result, len(personIDs))
	var completed int
	var lock sync.Mutex

	for start := 0; start < len(personIDs); start += b.config.WindowSize {
		end := start + b.config.WindowSize
		if end > len(personIDs) {
			end = len(personIDs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				personID := personIDs[i]
				certifications, summary, err := b.pipeline.Reconcile(ctx, personID)
				if err != nil {
					b.logger.Error("reconciliation failed for person",
						zap.String("personId", personID), zap.Error(err))
				}
				results[i] = Result{
					PersonID:       personID,
					Certifications: certifications,
					Summary:        summary,
					Err:            err,
				}

				lock.Lock()
				completed++
				done := completed
				lock.Unlock()
				if progress != nil {
					progress <- Progress{
						PersonID:  personID,
						Completed: done,
						Total:     len(personIDs),
						Err:       err,
					}
				}
			}(i)
		}
		wg.Wait()

		if end < len(personIDs) {
			if err := b.sleep(ctx, b.config.WindowDelay); err != nil {
				// Cancelled between windows; mark the remainder.
				for i := end; i < len(personIDs); i++ {
					results[i] = Result{PersonID: personIDs[i], Err: err}
				}
				return results
			}
		}
	}
	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
