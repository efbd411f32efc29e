package service

import (
	"context"
	"testing"
	"time"

	"estatescout/internal/model"
	"estatescout/internal/repository"
)

func testCriteria() model.SearchCriteria {
	return model.SearchCriteria{
		Location:     "Austin",
		MaxPrice:     2000,
		Bedrooms:     "2",
		Requirements: "pet friendly",
	}
}

func testProperties(n int) []model.Property {
	props := make([]model.Property, n)
	for i := range props {
		props[i] = model.Property{
			ID:      i + 1,
			Title:   "Test Property",
			Price:   1500,
			Address: "100 Main St, Austin",
		}
	}
	return props
}

func TestCacheKey_Normalization(t *testing.T) {
	a := model.SearchCriteria{Location: "  Austin ", MaxPrice: 2000, Bedrooms: "2", Requirements: "Pet Friendly"}
	b := model.SearchCriteria{Location: "austin", MaxPrice: 2000, Bedrooms: "2", Requirements: "pet friendly"}

	if CacheKey(a) != CacheKey(b) {
		t.Error("Expected normalized criteria to share the same cache key")
	}

	c := model.SearchCriteria{Location: "austin", MaxPrice: 2500, Bedrooms: "2", Requirements: "pet friendly"}
	if CacheKey(a) == CacheKey(c) {
		t.Error("Expected different max price to change the cache key")
	}
}

func TestSearchCache_RoundTrip(t *testing.T) {
	cache := NewSearchCache(repository.NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	if err := cache.Put(ctx, testCriteria(), testProperties(5)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Requesting fewer than stored returns a prefix.
	results, hit := cache.Get(ctx, testCriteria(), 3)
	if !hit {
		t.Fatal("Expected cache hit")
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if results[0].ID != 1 || results[2].ID != 3 {
		t.Error("Expected a prefix of the stored results in original order")
	}

	// Requesting more than stored is a miss.
	if _, hit := cache.Get(ctx, testCriteria(), 8); hit {
		t.Error("Expected miss when stored count is below requested count")
	}

	// Equivalent criteria with different casing hits the same entry.
	equivalent := model.SearchCriteria{Location: "AUSTIN ", MaxPrice: 2000, Bedrooms: "2", Requirements: "PET FRIENDLY"}
	if _, hit := cache.Get(ctx, equivalent, 5); !hit {
		t.Error("Expected hit for criteria normalizing to the same key")
	}
}

func TestSearchCache_Expiry(t *testing.T) {
	cache := NewSearchCache(repository.NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	base := time.Now()
	cache.now = func() time.Time { return base }

	if err := cache.Put(ctx, testCriteria(), testProperties(5)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Still fresh just inside the window.
	cache.now = func() time.Time { return base.Add(23 * time.Hour) }
	if _, hit := cache.Get(ctx, testCriteria(), 5); !hit {
		t.Error("Expected hit inside the freshness window")
	}

	// Stale past 24 hours even with identical criteria and enough results.
	cache.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, hit := cache.Get(ctx, testCriteria(), 5); hit {
		t.Error("Expected miss after the freshness window elapsed")
	}
}

func TestSearchCache_MissOnEmptyStore(t *testing.T) {
	cache := NewSearchCache(repository.NewMemoryStore(), 24*time.Hour)

	if _, hit := cache.Get(context.Background(), testCriteria(), 5); hit {
		t.Error("Expected miss on empty store")
	}
}
