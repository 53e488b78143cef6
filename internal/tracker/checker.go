package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// Fetcher renders a listing page and returns its HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url, selector string) (string, error)
}

// Extractor pulls structured products out of listing HTML.
type Extractor interface {
	Extract(ctx context.Context, html, url string, threshold float64) (below, all []models.ExtractedProduct, err error)
}

// Checker runs the fetch-extract-filter pipeline for one tracked listing and
// records passing products in the shared price history.
type Checker struct {
	fetcher          Fetcher
	extractor        Extractor
	defaultThreshold float64
	history          models.PriceHistory
	logger           *slog.Logger
	now              func() time.Time
}

func NewChecker(fetcher Fetcher, extractor Extractor, defaultThreshold float64, history models.PriceHistory, logger *slog.Logger) *Checker {
	return &Checker{
		fetcher:          fetcher,
		extractor:        extractor,
		defaultThreshold: defaultThreshold,
		history:          history,
		logger:           logger.With("component", "checker"),
		now:              time.Now,
	}
}

// Check fetches the listing, extracts its products and returns an alert per
// product below the effective threshold. A fetch or extraction failure is
// returned as an error with no alerts; zero alerts with a nil error means the
// page was checked and nothing qualified.
func (c *Checker) Check(ctx context.Context, listing models.TrackedListing) ([]models.Alert, error) {
	threshold := listing.EffectiveThreshold(c.defaultThreshold)

	c.logger.Info("checking listing",
		"listing", listing.Name, "url", listing.URL, "threshold", threshold, "selector", listing.Selector)

	html, err := c.fetcher.Fetch(ctx, listing.URL, listing.Selector)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %q: %w", listing.Name, err)
	}
	if html == "" {
		c.logger.Warn("listing returned no content", "listing", listing.Name)
		return nil, nil
	}

	below, all, err := c.extractor.Extract(ctx, html, listing.URL, threshold)
	if err != nil {
		return nil, fmt.Errorf("extract listing %q: %w", listing.Name, err)
	}

	if len(below) == 0 {
		if len(all) > 0 {
			c.logger.Info("no products below threshold",
				"listing", listing.Name, "products", len(all))
		} else {
			c.logger.Warn("no products extracted from page", "listing", listing.Name)
		}
		return nil, nil
	}

	timestamp := c.now().Format(time.RFC3339)
	alerts := make([]models.Alert, 0, len(below))
	for _, product := range below {
		name := product.Name
		if name == "" {
			name = "Unknown Product"
		}

		productURL := resolveProductURL(listing.URL, product.URL)

		alert := models.Alert{
			ID:          uuid.New().String(),
			ListingName: listing.Name,
			ProductName: name,
			URL:         productURL,
			Price:       product.Price,
			Threshold:   threshold,
			Timestamp:   timestamp,
			Alert:       true,
		}
		alerts = append(alerts, alert)

		c.history.Append(productURL, models.PriceHistoryEntry{
			Price:     product.Price,
			Timestamp: timestamp,
		})

		c.logger.Info("price below threshold",
			"product", name, "price", product.Price, "threshold", threshold, "url", productURL)
	}

	return alerts, nil
}

// resolveProductURL makes a product URL absolute. An empty URL falls back to
// the listing page; a relative one is resolved against it.
func resolveProductURL(listingURL, productURL string) string {
	if productURL == "" {
		return listingURL
	}
	if strings.HasPrefix(productURL, "http://") || strings.HasPrefix(productURL, "https://") {
		return productURL
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return listingURL
	}
	ref, err := url.Parse(productURL)
	if err != nil {
		return listingURL
	}
	return base.ResolveReference(ref).String()
}
