package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkred07/shoe-tracker/internal/models"
)

type fakeFetcher struct {
	html         string
	err          error
	lastURL      string
	lastSelector string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, selector string) (string, error) {
	f.lastURL = url
	f.lastSelector = selector
	return f.html, f.err
}

type fakeExtractor struct {
	below         []models.ExtractedProduct
	all           []models.ExtractedProduct
	err           error
	lastThreshold float64
}

func (f *fakeExtractor) Extract(_ context.Context, _, _ string, threshold float64) ([]models.ExtractedProduct, []models.ExtractedProduct, error) {
	f.lastThreshold = threshold
	return f.below, f.all, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChecker(f *fakeFetcher, e *fakeExtractor, history models.PriceHistory) *Checker {
	c := NewChecker(f, e, 50000, history, testLogger())
	c.now = func() time.Time { return time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCheckBuildsAlertAndHistory(t *testing.T) {
	fetch := &fakeFetcher{html: "<div>listing</div>"}
	extract := &fakeExtractor{
		below: []models.ExtractedProduct{{Name: "Shoe A", Price: 45000, URL: ""}},
		all:   []models.ExtractedProduct{{Name: "Shoe A", Price: 45000, URL: ""}},
	}
	history := models.PriceHistory{}
	c := newTestChecker(fetch, extract, history)

	listing := models.TrackedListing{URL: "https://shop.example.com/zapatillas", Name: "Zapatillas"}
	alerts, err := c.Check(context.Background(), listing)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "Zapatillas", alert.ListingName)
	assert.Equal(t, "Shoe A", alert.ProductName)
	assert.Equal(t, float64(45000), alert.Price)
	assert.Equal(t, float64(50000), alert.Threshold)
	assert.Equal(t, "2025-08-25T12:00:00Z", alert.Timestamp)
	assert.True(t, alert.Alert)

	// Empty product URL falls back to the listing URL; history gains an entry.
	assert.Equal(t, listing.URL, alert.URL)
	require.Len(t, history[listing.URL], 1)
	assert.Equal(t, float64(45000), history[listing.URL][0].Price)
	assert.Equal(t, alert.Timestamp, history[listing.URL][0].Timestamp)
}

func TestCheckResolvesProductURLs(t *testing.T) {
	tests := []struct {
		name       string
		productURL string
		expected   string
	}{
		{
			name:       "empty url falls back to listing",
			productURL: "",
			expected:   "https://shop.example.com/zapatillas",
		},
		{
			name:       "relative url resolves against listing origin",
			productURL: "/p/123",
			expected:   "https://shop.example.com/p/123",
		},
		{
			name:       "absolute url unchanged",
			productURL: "https://cdn.example.com/p/456",
			expected:   "https://cdn.example.com/p/456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch := &fakeFetcher{html: "<div></div>"}
			extract := &fakeExtractor{
				below: []models.ExtractedProduct{{Name: "Shoe", Price: 1000, URL: tt.productURL}},
			}
			c := newTestChecker(fetch, extract, models.PriceHistory{})

			alerts, err := c.Check(context.Background(), models.TrackedListing{
				URL: "https://shop.example.com/zapatillas", Name: "Zapatillas",
			})
			require.NoError(t, err)
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.expected, alerts[0].URL)
		})
	}
}

func TestCheckUsesListingThresholdOverride(t *testing.T) {
	fetch := &fakeFetcher{html: "<div></div>"}
	extract := &fakeExtractor{}
	c := newTestChecker(fetch, extract, models.PriceHistory{})

	override := 30000.0
	_, err := c.Check(context.Background(), models.TrackedListing{
		URL: "https://shop.example.com", Name: "Shop", Threshold: &override, Selector: "#gallery",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(30000), extract.lastThreshold)
	assert.Equal(t, "#gallery", fetch.lastSelector)
}

func TestCheckFetchFailure(t *testing.T) {
	fetch := &fakeFetcher{err: errors.New("navigation timeout")}
	extract := &fakeExtractor{}
	history := models.PriceHistory{}
	c := newTestChecker(fetch, extract, history)

	alerts, err := c.Check(context.Background(), models.TrackedListing{URL: "https://down.example.com", Name: "Down"})
	assert.Error(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, history)
}

func TestCheckEmptyContentSkipsExtraction(t *testing.T) {
	fetch := &fakeFetcher{html: ""}
	extract := &fakeExtractor{err: errors.New("must not be called")}
	c := newTestChecker(fetch, extract, models.PriceHistory{})

	alerts, err := c.Check(context.Background(), models.TrackedListing{URL: "https://empty.example.com", Name: "Empty"})
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Zero(t, extract.lastThreshold, "extractor must not run on empty content")
}

func TestCheckExtractionFailure(t *testing.T) {
	fetch := &fakeFetcher{html: "<div></div>"}
	extract := &fakeExtractor{err: errors.New("bad model response")}
	c := newTestChecker(fetch, extract, models.PriceHistory{})

	alerts, err := c.Check(context.Background(), models.TrackedListing{URL: "https://shop.example.com", Name: "Shop"})
	assert.Error(t, err)
	assert.Empty(t, alerts)
}

func TestCheckUnnamedProductGetsPlaceholder(t *testing.T) {
	fetch := &fakeFetcher{html: "<div></div>"}
	extract := &fakeExtractor{
		below: []models.ExtractedProduct{{Name: "", Price: 1000}},
	}
	c := newTestChecker(fetch, extract, models.PriceHistory{})

	alerts, err := c.Check(context.Background(), models.TrackedListing{URL: "https://shop.example.com", Name: "Shop"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Unknown Product", alerts[0].ProductName)
}
