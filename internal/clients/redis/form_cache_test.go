package redis

import (
	"os"
	"testing"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

func TestFormCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewFormCache(log, FormCacheConfig{Addr: addr, TTL: time.Minute, KeyPrefix: "forms-test:"})
	if err != nil {
		t.Fatalf("NewFormCache: %v", err)
	}
	defer c.Close()

	key := "hausee_budget_" + time.Now().Format("150405.000000000")
	if got, err := c.Get(key); err != nil || got != nil {
		t.Fatalf("expected miss, got %v err=%v", got, err)
	}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := c.Put(key, forms.RawRecord{Payload: []byte(`{"a":1}`), UpdatedAt: at}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(key)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if string(got.Payload) != `{"a":1}` || !got.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected record %s %v", got.Payload, got.UpdatedAt)
	}
}
