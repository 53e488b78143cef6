package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkred07/shoe-tracker/internal/models"
)

type scriptedChecker struct {
	results map[string][]models.Alert
	errs    map[string]error
	checked []string
}

func (s *scriptedChecker) Check(_ context.Context, listing models.TrackedListing) ([]models.Alert, error) {
	s.checked = append(s.checked, listing.Name)
	return s.results[listing.Name], s.errs[listing.Name]
}

type recordingHistoryStore struct {
	saves  int
	loaded models.PriceHistory
	err    error
}

func (r *recordingHistoryStore) Load(context.Context) (models.PriceHistory, error) {
	return r.loaded, nil
}

func (r *recordingHistoryStore) Save(_ context.Context, _ models.PriceHistory) error {
	r.saves++
	return r.err
}

type recordingNotifier struct {
	calls  int
	alerts []models.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alerts []models.Alert) error {
	r.calls++
	r.alerts = alerts
	return nil
}

type countingLimiter struct {
	waits int
}

func (c *countingLimiter) Wait(context.Context) error {
	c.waits++
	return nil
}

type dropFirstDeduper struct{}

func (dropFirstDeduper) Filter(_ context.Context, alerts []models.Alert) []models.Alert {
	if len(alerts) == 0 {
		return alerts
	}
	return alerts[1:]
}

func listings(names ...string) []models.TrackedListing {
	var out []models.TrackedListing
	for _, name := range names {
		out = append(out, models.TrackedListing{Name: name, URL: "https://" + name + ".example.com"})
	}
	return out
}

func TestRunNoListingsIsSideEffectFree(t *testing.T) {
	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	limiter := &countingLimiter{}
	checker := &scriptedChecker{}

	r := NewRunner(nil, checker, models.PriceHistory{}, store, notify, nil, limiter, testLogger())
	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, checker.checked)
	assert.Zero(t, store.saves)
	assert.Zero(t, notify.calls)
	assert.Zero(t, limiter.waits)
}

func TestRunThrottlesBetweenListingsOnly(t *testing.T) {
	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	limiter := &countingLimiter{}
	checker := &scriptedChecker{}

	r := NewRunner(listings("a", "b", "c"), checker, models.PriceHistory{}, store, notify, nil, limiter, testLogger())
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, checker.checked)
	assert.Equal(t, 2, limiter.waits, "no pause after the final listing")
	assert.Equal(t, 1, store.saves)
}

func TestRunAggregatesAlertsAndNotifies(t *testing.T) {
	alertA := models.Alert{ID: "1", ListingName: "a", ProductName: "Shoe A", Price: 45000}
	alertB := models.Alert{ID: "2", ListingName: "b", ProductName: "Shoe B", Price: 30000}

	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{results: map[string][]models.Alert{
		"a": {alertA},
		"b": {alertB},
	}}

	r := NewRunner(listings("a", "b"), checker, models.PriceHistory{}, store, notify, nil, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	require.Equal(t, 1, notify.calls)
	assert.Equal(t, []models.Alert{alertA, alertB}, notify.alerts)
}

func TestRunNoAlertsSkipsNotification(t *testing.T) {
	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{}

	r := NewRunner(listings("a"), checker, models.PriceHistory{}, store, notify, nil, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	assert.Zero(t, notify.calls)
	assert.Equal(t, 1, store.saves, "history persisted even without alerts")
}

func TestRunListingFailureDoesNotAbort(t *testing.T) {
	alertB := models.Alert{ID: "2", ListingName: "b"}

	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{
		errs:    map[string]error{"a": errors.New("fetch failed")},
		results: map[string][]models.Alert{"b": {alertB}},
	}

	r := NewRunner(listings("a", "b"), checker, models.PriceHistory{}, store, notify, nil, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"a", "b"}, checker.checked)
	require.Equal(t, 1, notify.calls)
	assert.Equal(t, []models.Alert{alertB}, notify.alerts)
}

func TestRunHistorySavedEvenWhenNotifierSkipped(t *testing.T) {
	store := &recordingHistoryStore{err: errors.New("disk full")}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{results: map[string][]models.Alert{
		"a": {{ID: "1"}},
	}}

	r := NewRunner(listings("a"), checker, models.PriceHistory{}, store, notify, nil, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	// Save failure is logged, the alerts still go out.
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, notify.calls)
}

func TestRunDeduperFiltersBeforeNotify(t *testing.T) {
	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{results: map[string][]models.Alert{
		"a": {{ID: "1"}, {ID: "2"}},
	}}

	r := NewRunner(listings("a"), checker, models.PriceHistory{}, store, notify, dropFirstDeduper{}, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	require.Equal(t, 1, notify.calls)
	require.Len(t, notify.alerts, 1)
	assert.Equal(t, "2", notify.alerts[0].ID)
}

func TestRunDeduperSuppressingEverythingSkipsNotify(t *testing.T) {
	store := &recordingHistoryStore{}
	notify := &recordingNotifier{}
	checker := &scriptedChecker{results: map[string][]models.Alert{
		"a": {{ID: "1"}},
	}}

	r := NewRunner(listings("a"), checker, models.PriceHistory{}, store, notify, dropFirstDeduper{}, &countingLimiter{}, testLogger())
	require.NoError(t, r.Run(context.Background()))

	assert.Zero(t, notify.calls)
}
