package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/pipeline"
	"sjsage522/dealpicker/logger"
	"sjsage522/dealpicker/services/publisher"
)

// Runner runs one comparison query
type Runner interface {
	Run(ctx context.Context, rawURL string) (*pipeline.Outcome, error)
}

// Logger receives the worker's progress and failures
type Logger interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

type defaultLogger struct{}

func (defaultLogger) LogError(component string, err error) {
	logger.LogError(component, err, "watch step failed")
}

func (defaultLogger) LogInfo(format string, args ...interface{}) {
	logger.LogInfo("worker", format, args...)
}

// Worker re-runs comparisons for a fixed set of product links on an interval
type Worker struct {
	runner    Runner
	urls      []string
	publisher publisher.Publisher
	logger    Logger
	interval  time.Duration

	mu     sync.Mutex
	rounds int
}

// NewWorker creates a new worker. A nil logger logs through the logger package.
func NewWorker(runner Runner, urls []string, pub publisher.Publisher, log Logger, interval time.Duration) *Worker {
	if pub == nil {
		pub = publisher.Noop{}
	}
	if log == nil {
		log = defaultLogger{}
	}
	return &Worker{
		runner:    runner,
		urls:      append([]string(nil), urls...),
		publisher: pub,
		logger:    log,
		interval:  interval,
	}
}

// Start runs rounds until ctx is cancelled. The first round starts at once.
func (w *Worker) Start(ctx context.Context) error {
	if len(w.urls) == 0 {
		return errors.New("no product links to watch")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.runRound(ctx)
		w.logger.LogInfo("watch round over %d links took %s", len(w.urls), time.Since(start))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Rounds returns the number of completed rounds
func (w *Worker) Rounds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rounds
}

// runRound queries every link in order and then trims the streams. Queries
// run one at a time since the pipeline serializes them anyway.
func (w *Worker) runRound(ctx context.Context) {
	for _, u := range w.urls {
		if ctx.Err() != nil {
			return
		}
		w.query(ctx, u)
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}

	w.mu.Lock()
	w.rounds++
	w.mu.Unlock()
}

func (w *Worker) query(ctx context.Context, rawURL string) {
	outcome, err := w.runner.Run(ctx, rawURL)
	if err != nil {
		w.logger.LogError("worker", fmt.Errorf("query %s: %w", rawURL, err))
		return
	}

	best := outcome.Best
	w.logger.LogInfo("best deal for %s: %s at %d (saves %d)",
		outcome.Product.Name, best.Platform, best.FinalPrice, best.Savings)
}
