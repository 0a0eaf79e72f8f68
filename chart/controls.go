package chart

import (
	"context"
	"sync"
)

// PortfolioControls tracks the strategy and period selectors and reloads the
// portfolio chart whenever either changes. Every reload sends both current
// values.
type PortfolioControls struct {
	loader *Loader

	mu     sync.Mutex
	filter Filter
}

// PortfolioControls returns controls seeded with the selectors' current
// values on the page.
func (l *Loader) PortfolioControls() *PortfolioControls {
	var f Filter
	f.Strategy, _ = l.page.Attr(StrategyFilterID, "value")
	f.Period, _ = l.page.Attr(PeriodFilterID, "value")
	return &PortfolioControls{loader: l, filter: f}
}

// Filter returns the current selection.
func (c *PortfolioControls) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *PortfolioControls) OnStrategyChange(ctx context.Context, strategy string) (*Result, error) {
	c.mu.Lock()
	c.filter.Strategy = strategy
	f := c.filter
	c.mu.Unlock()
	return c.loader.LoadPortfolioChart(ctx, f)
}

func (c *PortfolioControls) OnPeriodChange(ctx context.Context, period string) (*Result, error) {
	c.mu.Lock()
	c.filter.Period = period
	f := c.filter
	c.mu.Unlock()
	return c.loader.LoadPortfolioChart(ctx, f)
}

// Bootstrap performs the page-load initialization: the bot chart when the
// bot container names a bot, and the unfiltered portfolio chart when its
// container exists. Both loads run concurrently; the first error is returned.
func Bootstrap(ctx context.Context, l *Loader) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(load func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := load(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}

	if botID, ok := l.page.Attr(BotContainerID, BotIDAttr); ok && botID != "" {
		run(func() error {
			_, err := l.LoadBotChart(ctx, botID)
			return err
		})
	}
	if l.page.Has(PortfolioContainerID) {
		run(func() error {
			_, err := l.LoadPortfolioChart(ctx, Filter{})
			return err
		})
	}
	wg.Wait()
	return firstErr
}
