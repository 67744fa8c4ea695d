package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

var ErrNoTitle = errors.New("page has no usable title")

// Scraper defines the interface for downloading web pages.
// This allows us to mock the "Download" step in tests.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

// DefaultScraper is the real implementation that uses the internet
type DefaultScraper struct{}

func (s *DefaultScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(url, timeout)
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// Resolver turns a product link into a name suitable for a new item.
type Resolver struct {
	scraper Scraper
	timeout time.Duration
	logger  *zap.Logger
}

func NewResolver(timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		scraper: &DefaultScraper{},
		timeout: timeout,
		logger:  logger,
	}
}

// Title fetches the page and returns its title. The context deadline, when
// earlier than the resolver timeout, wins.
func (r *Resolver) Title(ctx context.Context, url string) (string, error) {
	timeout := r.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger := r.logger.With(zap.String("url", url))
	logger.Debug("Fetching page title")

	art, err := r.scraper.Scrape(url, timeout)
	if err != nil {
		logger.Warn("Scraping failed", zap.Error(err))
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	title := strings.Join(strings.Fields(art.Title), " ")
	if title == "" {
		return "", ErrNoTitle
	}
	logger.Debug("Resolved title", zap.String("title", title))
	return title, nil
}
