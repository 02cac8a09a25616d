package gather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedmill/feedmill/app/crawler"
	"github.com/feedmill/feedmill/app/feed"
	"github.com/feedmill/feedmill/app/readability"
)

// ErrNoUsableLink means the item's feed requires a link substitution
// from its content and the expected marker was absent.
var ErrNoUsableLink = errors.New("no usable link")

// Articles count as fresh for a day: once extracted, a page is not
// refetched on every feed poll.
const articleForceMin = 24 * time.Hour

// fillItem fetches the item's article and replaces the content with the
// extracted text. A nil return means "done": filled, or nothing to do.
// An error means the fetch itself failed; in fast mode the caller
// removes the item.
func (g *Gatherer) fillItem(ctx context.Context, item feed.Item, feedURL string, opts Options, fast bool) error {
	link := item.Link()
	if link == "" {
		return nil
	}

	contentWords := readability.Words(item.Content())
	descWords := readability.Words(item.Desc())

	if !opts.Hungry {
		// already substantial: keep the larger text as the content
		if contentWords > 500 || descWords > 500 {
			if descWords > contentWords {
				item.SetContent(item.Desc())
			}
			item.SetDesc("")
			return nil
		}

		if contentWords > 5*descWords && descWords > 0 && contentWords > 50 {
			return nil
		}
	}

	substituted, err := substituteLink(feedURL, item.Content())
	if err != nil {
		return err
	}
	if substituted != "" {
		link = substituted
	}

	policy := crawler.PolicyDefault
	switch {
	case fast || opts.Cache:
		policy = crawler.PolicyOffline
	case opts.Force:
		policy = crawler.PolicyRefresh
	}

	timeout := time.Duration(g.config.Timeout) * time.Second
	if fast {
		timeout /= 2
	}

	res, err := g.crawler.Get(ctx, link, crawler.Options{
		Accept:   []string{"html", "text/plain"},
		Policy:   policy,
		ForceMin: articleForceMin,
		Timeout:  timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	if !res.IsText() {
		slog.Debug("Non-text page, nothing to extract", "link", link, "contentType", res.ContentType)
		return nil
	}

	if len(res.Body) == 0 {
		return nil
	}

	article, err := g.extractor.Run(crawler.DecodeBody(res.Body, res.Encoding), res.URL)
	if err != nil {
		slog.Debug("Extraction failed", "link", link, "error", err)
		return nil
	}

	if article != "" {
		if opts.Hungry || readability.Words(article) > max(contentWords, descWords) {
			item.SetContent(article)
		}
	}

	if opts.Resolve {
		item.SetLink(res.URL)
	}

	return nil
}
