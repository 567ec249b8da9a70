// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrRefresherNotStopped = errors.New("refresher is either running or starting")
	ErrRefresherNotRunning = errors.New("refresher is either stopped or stopping")
	ErrUndefinedTicker     = errors.New("refresher ticker is undefined")
)

// refresher states
const (
	stopped int32 = iota
	running
	transitioning
)

const defaultRefreshInterval = 5 * time.Minute

// RefresherConfig contains config data for background catalog refresh.
type RefresherConfig struct {
	// RefreshInterval is how often the catalog snapshot is re-fetched.
	// (Optional) Defaults to 5 minutes.
	RefreshInterval time.Duration

	// Logger to be used by the refresher.
	// (Optional) By default a no op logger will be used.
	Logger *zap.Logger
}

// Refresher keeps the catalog cache warm by re-fetching the merged snapshot
// on an interval, so report requests rarely pay the full paginated fetch.
type Refresher struct {
	resolver *Resolver
	logger   *zap.Logger
	measures *Measures

	ticker   *time.Ticker
	interval time.Duration
	shutdown chan struct{}
	state    int32
}

// NewRefresher builds a refresher around the given resolver. Measures may be
// nil; metrics are then skipped.
func NewRefresher(resolver *Resolver, measures *Measures, config RefresherConfig) *Refresher {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = defaultRefreshInterval
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Refresher{
		resolver: resolver,
		logger:   config.Logger,
		measures: measures,
		ticker:   time.NewTicker(config.RefreshInterval),
		interval: config.RefreshInterval,
		shutdown: make(chan struct{}),
	}
}

// Start begins refreshing the catalog on an interval. If a refresh process is
// already in progress, calling Start() returns an error; call Stop() first to
// restart it.
func (r *Refresher) Start(ctx context.Context) error {
	if r.ticker == nil {
		return ErrUndefinedTicker
	}
	if !atomic.CompareAndSwapInt32(&r.state, stopped, transitioning) {
		r.logger.Error("start called when the refresher was not in stopped state", zap.Error(ErrRefresherNotStopped))
		return ErrRefresherNotStopped
	}

	r.ticker.Reset(r.interval)
	go func() {
		for {
			select {
			case <-r.shutdown:
				return
			case <-r.ticker.C:
				r.refreshOnce()
			}
		}
	}()

	atomic.SwapInt32(&r.state, running)
	return nil
}

func (r *Refresher) refreshOnce() {
	outcome := SuccessOutcome
	entries := r.resolver.Catalog(context.Background())
	if len(entries) == 0 {
		outcome = FailureOutcome
		r.logger.Error("background catalog refresh produced an empty catalog")
	} else {
		r.logger.Debug("background catalog refresh complete", zap.Int("courses", len(entries)))
	}
	if r.measures != nil {
		r.measures.Polls.With(prometheus.Labels{OutcomeLabel: outcome}).Add(1)
	}
}

// Stop requests the current refresh process to stop. Calling Stop() when the
// refresher is not running returns an error.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.ticker == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&r.state, running, transitioning) {
		r.logger.Error("stop called when the refresher was not in running state", zap.Error(ErrRefresherNotRunning))
		return ErrRefresherNotRunning
	}

	r.ticker.Stop()
	r.shutdown <- struct{}{}
	atomic.SwapInt32(&r.state, stopped)
	return nil
}
