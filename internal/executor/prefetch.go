package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"api-doc-explorer/internal/disclosure"

	"golang.org/x/sync/errgroup"
)

// Config holds configuration for prefetch execution
type Config struct {
	Workers int
	Retry   RetryConfig
}

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Result summarizes one prefetch pass
type Result struct {
	Requested int
	Loaded    int
	Empty     int
	Failed    int
	Dropped   int
	Duration  time.Duration
}

// Prefetcher warms leaf descriptions across view sessions with a bounded
// number of concurrent requests
type Prefetcher struct {
	config Config
	logger *slog.Logger
}

// NewPrefetcher creates a new prefetcher
func NewPrefetcher(config Config, logger *slog.Logger) *Prefetcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.Retry.Attempts <= 0 {
		config.Retry.Attempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Prefetcher{config: config, logger: logger}
}

type outcome int

const (
	outcomeLoaded outcome = iota
	outcomeEmpty
	outcomeFailed
	outcomeDropped
)

// Run requests the description of every leaf of every session and waits for
// all of them to settle. Failed leaves are retried up to the configured
// attempts. Only a canceled ctx aborts the pass.
func (p *Prefetcher) Run(ctx context.Context, sessions []*disclosure.Coordinator) (Result, error) {
	start := time.Now()
	var (
		mu     sync.Mutex
		result Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for _, coord := range sessions {
		coord := coord
		for _, leaf := range coord.Tree().Leaves() {
			path := leaf.FullPath()
			result.Requested++
			g.Go(func() error {
				out, err := p.prefetch(gctx, coord, path)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				switch out {
				case outcomeLoaded:
					result.Loaded++
				case outcomeEmpty:
					result.Empty++
				case outcomeFailed:
					result.Failed++
				case outcomeDropped:
					result.Dropped++
				}
				return nil
			})
		}
	}

	err := g.Wait()
	result.Duration = time.Since(start)
	p.logger.Info("prefetch finished",
		"requested", result.Requested,
		"loaded", result.Loaded,
		"empty", result.Empty,
		"failed", result.Failed,
		"dropped", result.Dropped,
		"duration", result.Duration)
	return result, err
}

func (p *Prefetcher) prefetch(ctx context.Context, coord *disclosure.Coordinator, path []string) (outcome, error) {
	for attempt := 1; ; attempt++ {
		_, settle, err := coord.RequestDescription(path)
		if errors.Is(err, disclosure.ErrDisposed) {
			return outcomeDropped, nil
		}
		if err != nil {
			return outcomeFailed, err
		}

		if _, err := settle.Wait(ctx); err != nil {
			if errors.Is(err, disclosure.ErrDisposed) {
				return outcomeDropped, nil
			}
			return outcomeFailed, err
		}

		if settle.Err() == nil {
			if _, ok := settle.Text(); ok {
				return outcomeLoaded, nil
			}
			return outcomeEmpty, nil
		}
		if attempt >= p.config.Retry.Attempts {
			return outcomeFailed, nil
		}

		p.logger.Debug("retrying description", "session", coord.ID(), "path", disclosure.PathKey(path), "attempt", attempt)
		select {
		case <-time.After(p.config.Retry.Delay):
		case <-ctx.Done():
			return outcomeFailed, ctx.Err()
		}
	}
}
