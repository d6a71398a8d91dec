// Package refresh keeps the latest built schedule in memory and rebuilds
// it on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/grid"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// Source loads the published congress document.
type Source interface {
	Schedule(ctx context.Context, token string) (model.Congress, error)
}

// Snapshot is one successful fetch and build.
type Snapshot struct {
	Congress model.Congress
	Result   grid.Result
	BuiltAt  time.Time
}

// Hook runs after every successful refresh. Its error is logged only.
type Hook func(ctx context.Context, snap Snapshot) error

// Runner owns the current Snapshot.
type Runner struct {
	src     Source
	opts    grid.Options
	timeout time.Duration

	mu    sync.RWMutex
	snap  *Snapshot
	hooks []Hook

	// runMu serializes RunOnce so manual and scheduled refreshes never
	// build concurrently.
	runMu sync.Mutex

	cron *cron.Cron
	log  *appLog.Logger
}

// NewRunner creates a runner that builds with opts.
func NewRunner(src Source, opts grid.Options) *Runner {
	return &Runner{
		src:     src,
		opts:    opts,
		timeout: 2 * time.Minute,
		log:     appLog.With("component", "refresh"),
	}
}

// OnRefresh registers a hook.
func (r *Runner) OnRefresh(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Snapshot returns the latest snapshot, if any refresh succeeded yet.
func (r *Runner) Snapshot() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return Snapshot{}, false
	}
	return *r.snap, true
}

// RunOnce fetches and builds the schedule and swaps it in. The previous
// snapshot is kept when the fetch fails.
func (r *Runner) RunOnce(ctx context.Context) (Snapshot, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := time.Now()
	c, err := r.src.Schedule(ctx, "")
	if err != nil {
		r.log.Error("refresh fetch failed", err)
		return Snapshot{}, err
	}

	res := grid.Build(c, r.opts)
	for _, f := range res.Failures {
		r.log.Warn("day skipped", "day", f.DayID, "error", f.Err.Error())
	}
	for _, tab := range res.Tabs {
		for _, o := range tab.Omissions {
			r.log.Debug("item omitted", "day", tab.Value, "id", o.ID, "type", o.Type.String(), "reason", string(o.Reason), "count", o.Count)
		}
	}

	snap := Snapshot{Congress: c, Result: res, BuiltAt: time.Now().UTC()}

	r.mu.Lock()
	r.snap = &snap
	hooks := append([]Hook(nil), r.hooks...)
	r.mu.Unlock()

	r.log.Info("refresh completed",
		"congress", c.ID,
		"tabs", len(res.Tabs),
		"failures", len(res.Failures),
		"empty_days", len(res.EmptyDays),
		"took", time.Since(started).Round(time.Millisecond).String(),
	)

	for _, h := range hooks {
		if err := h(ctx, snap); err != nil {
			r.log.Error("refresh hook failed", err)
		}
	}
	return snap, nil
}

// Start schedules RunOnce with a cron spec (standard five fields or a
// descriptor such as "@every 15m"). A run still in progress when the
// next one is due is skipped.
func (r *Runner) Start(spec string) error {
	if spec == "" {
		return errors.New("refresh: empty schedule")
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return err
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	r.log.Info("refresh scheduled", "spec", spec)
	return nil
}

// Stop halts the schedule and returns a context that is done once any
// running refresh has finished.
func (r *Runner) Stop() context.Context {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return c.Stop()
}
