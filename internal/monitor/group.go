package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

// ErrNoUsernames is returned when a group is started with nothing to watch.
var ErrNoUsernames = errors.New("no usernames to monitor")

// Group runs one independent Loop per username.
type Group struct {
	newLoop func(username string) *Loop
	logger  *slog.Logger
}

// NewGroup creates a group that builds loops with newLoop.
func NewGroup(newLoop func(username string) *Loop, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{newLoop: newLoop, logger: logger}
}

// Run monitors every distinct username until ctx is done. A panicking loop
// does not take the others down; the recovered panic is returned once all
// loops have exited.
func (g *Group) Run(ctx context.Context, usernames []string) error {
	usernames = lo.Uniq(lo.Compact(usernames))
	if len(usernames) == 0 {
		return ErrNoUsernames
	}

	g.logger.Info("monitor.group_start", "count", len(usernames))
	var wg conc.WaitGroup
	for _, username := range usernames {
		loop := g.newLoop(username)
		wg.Go(func() {
			_ = loop.Run(ctx)
		})
	}

	if recovered := wg.WaitAndRecover(); recovered != nil {
		g.logger.Error("monitor.loop_panic", "panic", recovered.String())
		return fmt.Errorf("monitor loop panicked: %w", recovered.AsError())
	}
	return nil
}
