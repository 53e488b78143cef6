package models

// TrackedListing is one listing page to check, as configured by the user in
// the tracked URLs file. Threshold overrides the global default when set;
// Selector scopes HTML extraction to a container element.
type TrackedListing struct {
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	Threshold *float64 `json:"threshold,omitempty"`
	Selector  string   `json:"selector,omitempty"`
}

// EffectiveThreshold returns the listing override if present, otherwise def.
func (l TrackedListing) EffectiveThreshold(def float64) float64 {
	if l.Threshold != nil {
		return *l.Threshold
	}
	return def
}

// Settings holds the global defaults from the tracked URLs file. ShoeNames,
// when non-empty, is a case-insensitive substring allow-list applied to
// extracted product names.
type Settings struct {
	Model     string   `json:"model"`
	Threshold float64  `json:"threshold"`
	ShoeNames []string `json:"shoe_names,omitempty"`
}

// TrackerConfig is the full on-disk configuration format.
type TrackerConfig struct {
	Settings Settings         `json:"settings"`
	URLs     []TrackedListing `json:"urls"`
}

const (
	DefaultModel     = "gemini-2.5-pro"
	DefaultThreshold = 50000
)

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Settings: Settings{
			Model:     DefaultModel,
			Threshold: DefaultThreshold,
		},
		URLs: []TrackedListing{},
	}
}

// ExtractedProduct is one product pulled out of a listing page by the model.
// Not persisted; URL may be empty or relative to the listing page.
type ExtractedProduct struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// Alert is a product that passed threshold and name filtering.
type Alert struct {
	ID          string  `json:"id"`
	ListingName string  `json:"listing_name"`
	ProductName string  `json:"product_name"`
	URL         string  `json:"url"`
	Price       float64 `json:"price"`
	Threshold   float64 `json:"threshold"`
	Timestamp   string  `json:"timestamp"`
	Alert       bool    `json:"alert"`
}

// PriceHistoryEntry is one observed price for a product URL.
type PriceHistoryEntry struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// MaxHistoryEntries bounds the history kept per product URL.
const MaxHistoryEntries = 30

// PriceHistory maps a product URL to its observed prices, oldest first.
type PriceHistory map[string][]PriceHistoryEntry

// Append records an entry for url, dropping the oldest entries so that at
// most MaxHistoryEntries remain.
func (h PriceHistory) Append(url string, entry PriceHistoryEntry) {
	entries := append(h[url], entry)
	if len(entries) > MaxHistoryEntries {
		entries = entries[len(entries)-MaxHistoryEntries:]
	}
	h[url] = entries
}
