// pkg/backoff/backoff.go
package backoff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantpulse/marketstream/pkg/logger"
)

// Config holds the exponential backoff settings plus an optional per-attempt
// timeout.
type Config struct {
	InitialInterval     time.Duration `mapstructure:"initial_interval"`     // default 1s
	RandomizationFactor float64       `mapstructure:"randomization_factor"` // jitter, default 0.5
	Multiplier          float64       `mapstructure:"multiplier"`           // default 2.0
	MaxInterval         time.Duration `mapstructure:"max_interval"`         // default 30s
	MaxElapsedTime      time.Duration `mapstructure:"max_elapsed_time"`     // 0 = retry forever
	PerAttemptTimeout   time.Duration `mapstructure:"per_attempt_timeout"`  // 0 = none
}

func (c *Config) applyDefaults() {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 1 * time.Second
	}
	if c.RandomizationFactor <= 0 {
		c.RandomizationFactor = 0.5
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
}

// RetryableFunc is a context-aware operation subject to retries.
type RetryableFunc func(ctx context.Context) error

// ErrMaxRetries is returned when the operation gave up.
type ErrMaxRetries struct {
	Err      error // final error (context or fn)
	Attempts int   // attempts made
}

func (e *ErrMaxRetries) Error() string {
	return fmt.Sprintf("backoff: failed after %d attempts: %v", e.Attempts, e.Err)
}
func (e *ErrMaxRetries) Unwrap() error { return e.Err }

var (
	retriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream", Subsystem: "backoff", Name: "retries_total",
		Help: "Number of retry attempts",
	})
	failuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream", Subsystem: "backoff", Name: "failures_total",
		Help: "Number of operations giving up after retries",
	})
	successesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream", Subsystem: "backoff", Name: "successes_total",
		Help: "Number of operations succeeded (possibly after retries)",
	})
	retryDelayHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketstream", Subsystem: "backoff", Name: "retry_delay_seconds",
		Help:    "Histogram of retry delays in seconds",
		Buckets: prometheus.DefBuckets,
	})

	registerOnce sync.Once
)

func registerMetrics(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(retriesTotal, failuresTotal, successesTotal, retryDelayHistogram)
	})
}

// Execute runs fn under exponential backoff with retry metrics.
func Execute(ctx context.Context, cfg Config, log *logger.Logger, fn RetryableFunc) error {
	registerMetrics(prometheus.DefaultRegisterer)
	cfg.applyDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.RandomizationFactor = cfg.RandomizationFactor
	bo.Multiplier = cfg.Multiplier
	bo.MaxInterval = cfg.MaxInterval
	// zero disables the elapsed-time cap; the library default is 15m
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	boCtx := backoff.WithContext(bo, ctx)

	var attempts int
	operation := func() error {
		attempts++
		if t := cfg.PerAttemptTimeout; t > 0 {
			ctxAttempt, cancel := context.WithTimeout(ctx, t)
			defer cancel()
			return fn(ctxAttempt)
		}
		return fn(ctx)
	}

	notify := func(err error, delay time.Duration) {
		retriesTotal.Inc()
		retryDelayHistogram.Observe(delay.Seconds())
		log.Sugar().Warnw("backoff retry", "error", err, "delay", delay, "attempt", attempts)
	}

	if err := backoff.RetryNotify(operation, boCtx, notify); err != nil {
		failuresTotal.Inc()
		log.Sugar().Errorw("backoff give up", "error", err, "attempts", attempts)
		return &ErrMaxRetries{Err: err, Attempts: attempts}
	}

	successesTotal.Inc()
	return nil
}
