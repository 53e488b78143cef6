package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// Extractor turns rendered listing HTML into structured products via one
// language-model call per listing.
type Extractor struct {
	client       Completer
	model        string
	shoeNames    []string
	maxHTMLBytes int
	logger       *slog.Logger
}

func New(client Completer, model string, shoeNames []string, maxHTMLBytes int, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:       client,
		model:        model,
		shoeNames:    shoeNames,
		maxHTMLBytes: maxHTMLBytes,
		logger:       logger.With("component", "extractor"),
	}
}

const promptTemplate = `You are analyzing HTML from a product listing page of an e-commerce site.
Extract ALL shoes/products visible on this page.

URL: %s

IMPORTANT: Argentine peso prices often have periods as thousands separators.
For example: "99.999" means 99,999 pesos (not 99.99).

Listing HTML:
%s

Instructions:
1. Find ALL products/shoes listed on this page
2. For EACH product, extract:
   - Product name/title (look for product titles, h2, h3, span with product names)
   - Current selling price in numbers only
   - Product URL if available (look for product links)
3. Price handling:
   - Remove ALL currency symbols ($, AR$, etc)
   - Remove ALL non-numeric characters except periods and commas
   - If price uses period as thousands separator (e.g., "99.999"), keep it as 99999
   - If price uses comma as decimal (e.g., "99,99"), convert to 99.99
4. Return data as JSON array
5. ONLY include products that have visible prices

Return ONLY valid JSON in this exact format (no markdown, no code blocks, no extra text):
[
  {"name": "Product Name", "price": 99999, "url": "product-url-or-empty-string"},
  {"name": "Another Product", "price": 149999, "url": "product-url-or-empty-string"}
]

If no products found, return: []`

// Extract sends the listing HTML to the model and returns the products below
// threshold alongside everything the model found. Transport and parse
// failures are reported as an error with two empty slices.
func (e *Extractor) Extract(ctx context.Context, html, url string, threshold float64) (below, all []models.ExtractedProduct, err error) {
	compact := CompactHTML(html, e.maxHTMLBytes)
	e.logger.Info("analyzing listing", "url", url, "html_bytes", len(compact), "model", e.model)

	prompt := fmt.Sprintf(promptTemplate, url, compact)

	raw, err := e.client.Complete(ctx, e.model, prompt)
	if err != nil {
		// No response was received, so there is nothing raw to log.
		return nil, nil, fmt.Errorf("model request: %w", err)
	}

	cleaned := StripFences(raw)

	var products []models.ExtractedProduct
	if err := json.Unmarshal([]byte(cleaned), &products); err != nil {
		e.logger.Warn("model response is not a JSON array",
			"error", err, "raw", snippet(cleaned, 500))
		return nil, nil, fmt.Errorf("parse model response: %w", err)
	}

	below = Filter(products, threshold, e.shoeNames)

	e.logger.Info("extraction complete",
		"url", url, "products", len(products), "below_threshold", len(below))
	return below, products, nil
}

// StripFences removes a wrapping markdown code fence from a model response.
// The outer fence lines are dropped first; any remaining fence markers are
// stripped as a fallback.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) > 2 {
		s = strings.Join(lines[1:len(lines)-1], "\n")
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Filter keeps products with a positive price at or below threshold and,
// when the allow-list is non-empty, whose name contains one of its entries
// case-insensitively.
func Filter(products []models.ExtractedProduct, threshold float64, shoeNames []string) []models.ExtractedProduct {
	var out []models.ExtractedProduct
	for _, p := range products {
		// A missing price decodes to 0; only products with a visible
		// price may alert.
		if p.Price <= 0 || p.Price > threshold {
			continue
		}
		if len(shoeNames) == 0 {
			out = append(out, p)
			continue
		}

		name := strings.ToLower(p.Name)
		for _, want := range shoeNames {
			if strings.Contains(name, strings.ToLower(want)) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
