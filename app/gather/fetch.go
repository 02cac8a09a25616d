package gather

import (
	"context"
	"fmt"
	"time"

	"github.com/feedmill/feedmill/app/crawler"
	"github.com/feedmill/feedmill/app/feed"
)

// A fetched feed is considered stale after an hour no matter what its
// headers say; the freshness floor comes from the feed-delay setting.
const feedForceMax = time.Hour

// FeedError is fatal to the whole run: without the feed itself there is
// nothing to process.
type FeedError struct {
	URL string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("failed to fetch feed %s: %s", e.URL, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// FetchFeed downloads and parses the feed. It follows rel=alternate
// links so a page URL can stand in for its feed URL. Returns the parsed
// feed and the final post-redirect URL, used as the base for resolving
// item links.
func (g *Gatherer) FetchFeed(ctx context.Context, rawURL string, opts Options) (*feed.Feed, string, error) {
	policy := crawler.PolicyDefault
	switch {
	case opts.Cache:
		policy = crawler.PolicyOffline
	case opts.Force:
		policy = crawler.PolicyRefresh
	}

	res, err := g.crawler.Get(ctx, rawURL, crawler.Options{
		Accept:   []string{"rss", "html"},
		Follow:   "rss",
		Policy:   policy,
		ForceMin: time.Duration(g.config.FeedDelay) * time.Second,
		ForceMax: feedForceMax,
		Timeout:  time.Duration(g.config.Timeout) * time.Second,
	})
	if err != nil {
		return nil, "", &FeedError{URL: rawURL, Err: err}
	}

	parsed, err := feed.NewParser().Run(crawler.DecodeBody(res.Body, res.Encoding))
	if err != nil {
		return nil, "", &FeedError{URL: res.URL, Err: err}
	}

	return parsed, res.URL, nil
}
