// File path: internal/database/cache_test.go
package database

import (
	"testing"
	"time"
)

func TestSchemaCacheExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	clock := func() time.Time { return current }
	cache := newSchemaCache(5*time.Minute, clock)

	if _, ok := cache.get(); ok {
		t.Fatal("empty cache must miss")
	}
	schema := Schema{{Name: "customers"}}
	cache.set(schema)
	got, ok := cache.get()
	if !ok || len(got) != 1 || got[0].Name != "customers" {
		t.Fatalf("expected cached schema, got %v ok=%v", got, ok)
	}

	current = current.Add(4 * time.Minute)
	if _, ok := cache.get(); !ok {
		t.Fatal("cache must stay fresh inside the TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.get(); ok {
		t.Fatal("cache must expire after the TTL")
	}
}

func TestSchemaCacheInvalidate(t *testing.T) {
	cache := newSchemaCache(time.Hour, nil)
	cache.set(Schema{{Name: "orders"}})
	cache.invalidate()
	if _, ok := cache.get(); ok {
		t.Fatal("invalidated cache must miss")
	}
}
