package capture

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/avast/retry-go/v4"

	"live-watcher/internal/domain"
)

// errInconclusive marks a probe attempt that should be retried.
var errInconclusive = errors.New("inconclusive probe")

// Checker determines whether a username is live by probing with the first
// installed backend.
type Checker struct {
	backends   []Backend
	liveURL    func(username string) string
	runner     commandRunner
	lookPath   func(string) (string, error)
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// CheckerOptions configures a Checker.
type CheckerOptions struct {
	Backends   []Backend
	LiveURL    func(username string) string
	Attempts   uint
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// NewChecker constructs a checker backed by real process execution.
func NewChecker(opts CheckerOptions) *Checker {
	return newChecker(opts, &execRunner{}, exec.LookPath)
}

// NewCheckerForTests constructs a checker with injectable dependencies.
func NewCheckerForTests(opts CheckerOptions, runner commandRunner, lookPath func(string) (string, error)) *Checker {
	return newChecker(opts, runner, lookPath)
}

func newChecker(opts CheckerOptions, runner commandRunner, lookPath func(string) (string, error)) *Checker {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Checker{
		backends:   opts.Backends,
		liveURL:    opts.LiveURL,
		runner:     runner,
		lookPath:   lookPath,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
	}
}

// CheckStatus probes username within timeout. Every failure, including a
// hung tool that has to be killed, degrades to LiveStatusUnknown. The
// probe context is shortened by the runner's pipe wait delay so the whole
// call, kill included, fits in timeout; timeouts of 2*waitDelay or less are
// used as is and may overrun by up to waitDelay.
func (c *Checker) CheckStatus(ctx context.Context, username string, timeout time.Duration) domain.LiveStatus {
	backend, binary, ok := c.probeBackend()
	if !ok {
		c.logger.Warn("probe.no_backend", "username", username)
		return domain.LiveStatusUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, probeBudget(timeout))
	defer cancel()

	url := c.liveURL(username)
	args := backend.ProbeArgs(url)
	status := domain.LiveStatusUnknown
	reason := ""

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("probe.retry", "username", username, "attempt", n+1, "reason", reason)
		}),
	}
	if c.retryDelay > 0 {
		opts = append(opts,
			retry.Delay(c.retryDelay),
			retry.MaxJitter(c.retryDelay),
			retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		)
	} else {
		opts = append(opts, retry.Delay(0), retry.DelayType(retry.FixedDelay))
	}

	err := retry.Do(func() error {
		result, runErr := c.runner.Run(ctx, binary, args...)
		status, reason = backend.ClassifyProbe(result, runErr)
		if status == domain.LiveStatusUnknown {
			return errInconclusive
		}
		return nil
	}, opts...)
	if err != nil {
		if ctx.Err() != nil {
			reason = "probe timed out"
		}
		c.logger.Warn("probe.unknown",
			"username", username,
			"backend", backend.Name(),
			"reason", reason,
		)
		return domain.LiveStatusUnknown
	}

	c.logger.Debug("probe.result",
		"username", username,
		"backend", backend.Name(),
		"status", string(status),
		"reason", reason,
	)
	return status
}

// probeBudget is the context deadline for a probe that must finish,
// including execRunner's WaitDelay, within timeout.
func probeBudget(timeout time.Duration) time.Duration {
	if timeout > 2*waitDelay {
		return timeout - waitDelay
	}
	return timeout
}

// probeBackend returns the first backend whose binary is on PATH.
func (c *Checker) probeBackend() (Backend, string, bool) {
	for _, backend := range c.backends {
		if path, err := c.lookPath(backend.Binary()); err == nil {
			return backend, path, true
		}
	}
	return nil, "", false
}
