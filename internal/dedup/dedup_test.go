package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/darkred07/shoe-tracker/internal/models"
)

type fakeSetNX struct {
	seen map[string]bool
	err  error
	keys []string
}

func (f *fakeSetNX) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	f.keys = append(f.keys, key)
	if f.err != nil {
		cmd := redis.NewBoolCmd(context.Background())
		cmd.SetErr(f.err)
		return cmd
	}

	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	fresh := !f.seen[key]
	f.seen[key] = true
	return redis.NewBoolResult(fresh, nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func alert(url string, price float64) models.Alert {
	return models.Alert{ID: "id-" + url, URL: url, Price: price}
}

func TestRedisDeduperSuppressesRepeats(t *testing.T) {
	client := &fakeSetNX{}
	d := NewWithClient(client, time.Hour, testLogger())

	ctx := context.Background()
	first := d.Filter(ctx, []models.Alert{alert("https://a", 100)})
	assert.Len(t, first, 1)

	second := d.Filter(ctx, []models.Alert{alert("https://a", 100)})
	assert.Empty(t, second)
}

func TestRedisDeduperDifferentPriceIsFresh(t *testing.T) {
	client := &fakeSetNX{}
	d := NewWithClient(client, time.Hour, testLogger())

	ctx := context.Background()
	d.Filter(ctx, []models.Alert{alert("https://a", 100)})
	got := d.Filter(ctx, []models.Alert{alert("https://a", 90)})
	assert.Len(t, got, 1)
}

func TestRedisDeduperKeepsAlertOnError(t *testing.T) {
	client := &fakeSetNX{err: errors.New("connection refused")}
	d := NewWithClient(client, time.Hour, testLogger())

	got := d.Filter(context.Background(), []models.Alert{alert("https://a", 100)})
	assert.Len(t, got, 1)
}

func TestNonePassesThrough(t *testing.T) {
	alerts := []models.Alert{alert("https://a", 1), alert("https://b", 2)}
	got := None{}.Filter(context.Background(), alerts)
	assert.Equal(t, alerts, got)
}
