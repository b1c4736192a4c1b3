// Package progress animates a best-effort completion estimate next to a
// long-running call. The animation is cosmetic: it never cancels or delays
// the work it decorates beyond a final snap to 100%.
package progress

import (
	"sync"
	"time"
)

// Renderer draws progress updates. Implementations must tolerate Update
// being called after Done.
type Renderer interface {
	Update(percent int, caption string)
	Done()
}

// Config holds animation tunables.
type Config struct {
	// Tick is the animation update interval.
	Tick time.Duration
	// Rotate is how long each caption stays up.
	Rotate time.Duration
	// Hold keeps the 100% frame visible briefly before clearing.
	Hold time.Duration
}

// DefaultConfig returns the production animation timings.
func DefaultConfig() Config {
	return Config{
		Tick:   500 * time.Millisecond,
		Rotate: 6 * time.Second,
		Hold:   400 * time.Millisecond,
	}
}

// Controller runs work functions with a concurrent progress animation.
type Controller struct {
	renderer Renderer
	cfg      Config
}

// New creates a Controller drawing through renderer.
func New(renderer Renderer, cfg Config) *Controller {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig().Tick
	}
	if cfg.Rotate <= 0 {
		cfg.Rotate = DefaultConfig().Rotate
	}
	return &Controller{renderer: renderer, cfg: cfg}
}

// Run executes work while animating an elapsed-time progress estimate scaled
// against expected. The estimate is capped at 95% until work returns, then
// snapped to 100%. The animation never interrupts or outlives work.
func (c *Controller) Run(label string, expected time.Duration, work func()) {
	if expected <= 0 {
		expected = 30 * time.Second
	}
	captions := captionsFor(label)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.animate(expected, captions, stop)
	}()

	work()

	close(stop)
	wg.Wait()

	c.renderer.Update(100, captions[len(captions)-1])
	if c.cfg.Hold > 0 {
		time.Sleep(c.cfg.Hold)
	}
	c.renderer.Done()
}

func (c *Controller) animate(expected time.Duration, captions []string, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()

	start := time.Now()
	c.renderer.Update(0, captions[0])

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Since(start)

			percent := int(elapsed * 100 / expected)
			if percent > 95 {
				percent = 95
			}

			idx := int(elapsed/c.cfg.Rotate) % len(captions)
			c.renderer.Update(percent, captions[idx])
		}
	}
}
