package churn

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chenx-dust/refptr/config"
	"github.com/chenx-dust/refptr/ptr"
)

// subject is the shared object every worker churns handles on.
type subject struct {
	ptr.Counter
	touches   atomic.Uint64
	destroyed *atomic.Int64
}

func (s *subject) Touch() {
	s.touches.Add(1)
}

func (s *subject) Destroy() {
	s.destroyed.Add(1)
}

// toucher is a narrower view of subject, reached by handle conversion.
type toucher interface {
	ptr.RefCounted
	Touch()
}

type Result struct {
	Operations uint64
	Elapsed    time.Duration
}

// Churn runs workers that each construct and drop many short-lived handles
// to one object while a set of long-lived handles keeps it alive, then checks
// that the count and the destructor calls add up exactly.
type Churn struct {
	cfg *config.Config
	log logr.Logger

	destroyed atomic.Int64
	result    Result
}

func NewChurn(cfg *config.Config, log logr.Logger) *Churn {
	return &Churn{
		cfg: cfg,
		log: log.WithName("churn"),
	}
}

func (c *Churn) Result() Result {
	return c.result
}

func (c *Churn) Run(ctx context.Context) error {
	c.log.Info("running churn", "workers", c.cfg.Workers, "iterations", c.cfg.Iterations, "survivors", c.cfg.Survivors)

	obj := &subject{destroyed: &c.destroyed}
	survivors := make([]ptr.Ptr[*subject], c.cfg.Survivors)
	for i := range survivors {
		survivors[i] = ptr.New(obj)
	}

	// workers only ever acquire through a live reference
	keepAlive := ptr.New(obj)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < c.cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			return c.work(gctx, w, obj)
		})
	}
	err := g.Wait()
	c.result.Elapsed = time.Since(start)
	c.result.Operations = obj.touches.Load()
	keepAlive.Release()
	if err != nil {
		for i := range survivors {
			survivors[i].Release()
		}
		return err
	}

	if got, want := obj.UseCount(), uint32(len(survivors)); got != want {
		return errors.Errorf("use count after churn: got %d, want %d", got, want)
	}
	wantDestroyed := int64(0)
	if len(survivors) == 0 {
		wantDestroyed = 1
	}
	if got := c.destroyed.Load(); got != wantDestroyed {
		return errors.Errorf("destroyed %d times while survivors were held", got)
	}

	for i := range survivors {
		survivors[i].Release()
	}
	if got := c.destroyed.Load(); got != 1 {
		return errors.Errorf("destroyed %d times after the last release, want 1", got)
	}

	c.log.Info("churn done",
		"operations", c.result.Operations,
		"elapsed", c.result.Elapsed,
		"opsPerSecond", float64(c.result.Operations)/c.result.Elapsed.Seconds())
	return nil
}

// work cycles through the handle operations. Every branch leaves the count
// where it found it.
func (c *Churn) work(ctx context.Context, w int, obj *subject) error {
	for i := 0; i < c.cfg.Iterations; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		switch (w + i) % 4 {
		case 0:
			h := ptr.New(obj)
			h.Get().Touch()
			h.Release()
		case 1:
			h := ptr.New(obj)
			view := ptr.MoveAs[toucher](&h)
			view.Get().Touch()
			view.Release()
		case 2:
			h := ptr.New(obj)
			raw := h.Detach()
			h = ptr.Adopt(raw)
			h.Get().Touch()
			h.Release()
		case 3:
			var h ptr.Ptr[*subject]
			h.ResetTo(obj)
			g := h.Clone()
			h.Assign(&g)
			g.Get().Touch()
			g.Release()
			h.Reset()
		}
	}
	return nil
}
