// Package gather orchestrates the per-feed sweep: fetch the feed, then
// for every item resolve its link, fetch the article and extract its
// content, under shared wall-clock and item-count budgets.
package gather

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/feedmill/feedmill/app/cfg"
	"github.com/feedmill/feedmill/app/crawler"
	"github.com/feedmill/feedmill/app/feed"
	"github.com/feedmill/feedmill/app/fix"
	"github.com/feedmill/feedmill/app/readability"
)

type Gatherer struct {
	crawler   *crawler.Crawler
	extractor *readability.Extractor
	siteRules []fix.SiteRule
	config    *cfg.Cfg
}

func New(c *crawler.Crawler, siteRules []fix.SiteRule, config *cfg.Cfg) *Gatherer {
	return &Gatherer{
		crawler:   c,
		extractor: readability.NewExtractor(),
		siteRules: siteRules,
		config:    config,
	}
}

type task struct {
	index int
	item  feed.Item
}

// Run sweeps the feed's items through resolve/fill/post-process across a
// worker pool, then compacts removed items. It mutates the feed in place
// and always returns; per-item failures never abort the batch.
func (g *Gatherer) Run(ctx context.Context, f *feed.Feed, feedURL string, opts Options) *feed.Feed {
	start := time.Now()

	maxTime := g.config.MaxTime
	if opts.Cache {
		maxTime = 0
	}

	workers := g.config.WorkerCount
	if opts.Mono || workers < 1 {
		workers = 1
	}

	resolverOpts := []fix.Option{fix.WithRedirectors(g.siteRules)}
	if opts.FirstLink {
		resolverOpts = append(resolverOpts, fix.WithFirstLink())
	}
	resolver := fix.NewResolver(resolverOpts...)

	items := make([]feed.Item, len(f.Items()))
	copy(items, f.Items())

	if opts.Newest {
		now := time.Now()
		sort.SliceStable(items, func(a, b int) bool {
			ta, tb := now, now
			if t := items[a].Time(); t != nil {
				ta = *t
			}
			if t := items[b].Time(); t != nil {
				tb = *t
			}
			return ta.After(tb)
		})
	}

	tasks := make(chan task, len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				g.processItem(ctx, start, maxTime, t.index, t.item, feedURL, resolver, opts)
			}
		}()
	}

	for i, item := range items {
		tasks <- task{index: i, item: item}
	}
	close(tasks)
	wg.Wait()

	// structural mutation happens in one place, after all workers are done
	f.Compact()

	slog.Debug("Feed gathered", "url", feedURL, "items", f.Len(), "elapsed", time.Since(start))

	return f
}

// processItem runs the full per-item pipeline. Budget checks use the
// pre-assigned index and the shared start time, so the outcome does not
// depend on worker scheduling.
func (g *Gatherer) processItem(ctx context.Context, start time.Time, maxTime float64, index int, item feed.Item, feedURL string, resolver *fix.Resolver, opts Options) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Item processing panicked", "url", feedURL, "index", index, "panic", r)
		}
	}()

	// hard cap: beyond it the item is dropped entirely
	if overBudget(start, g.config.LimTime, index, g.config.LimItem) {
		slog.Debug("Item dropped over hard budget", "index", index)
		item.Remove()
		return
	}

	if opts.Search != "" && !strings.Contains(item.Title(), opts.Search) {
		item.Remove()
		return
	}

	resolver.Run(item, feedURL)

	if !opts.Proxy {
		// soft cap: still kept, but filled from cache only
		fast := overBudget(start, maxTime, index, g.config.MaxItem)

		if err := g.fillItem(ctx, item, feedURL, opts, fast); err != nil {
			if fast {
				slog.Debug("Fast fill failed, removing item", "link", item.Link(), "error", err)
				item.Remove()
				return
			}
			slog.Debug("Item fill failed", "link", item.Link(), "error", err)
		}
	}

	finishItem(item, opts)
}

// overBudget implements the shared budget test: a negative limit
// disables that check.
func overBudget(start time.Time, timeLimit float64, index, itemLimit int) bool {
	if timeLimit >= 0 && time.Since(start).Seconds() > timeLimit {
		return true
	}
	return itemLimit >= 0 && index+1 > itemLimit
}

// finishItem applies the output-shaping options once filling is done.
func finishItem(item feed.Item, opts Options) {
	if opts.Clip && item.Desc() != "" && item.Content() != "" {
		item.SetContent(item.Desc() + "<br/><br/><hr/><br/><br/>" + item.Content())
		item.SetDesc("")
	}

	if opts.NoLink && item.Content() != "" {
		item.SetContent(stripAnchors(item.Content()))
	}

	if opts.NoRef {
		item.SetLink("")
	}
}
