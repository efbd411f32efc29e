package repository

import (
	"context"
	"sort"
	"sync"

	"estatescout/internal/model"
)

// MemoryStore is an in-memory Store used for tests and for running without a
// database. Documents are deep-copied on the way in and out so callers never
// share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	listings    []model.Listing
	preferences map[string]model.UserPreferences
	memories    map[string]model.ConversationMemory
	cache       map[string]model.SearchCacheEntry
	currencies  map[string]model.Currency
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		preferences: make(map[string]model.UserPreferences),
		memories:    make(map[string]model.ConversationMemory),
		cache:       make(map[string]model.SearchCacheEntry),
		currencies:  make(map[string]model.Currency),
	}
}

func (s *MemoryStore) InsertListing(ctx context.Context, listing *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = append(s.listings, *listing)
	return nil
}

func (s *MemoryStore) ListListings(ctx context.Context, userID string) ([]model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Listing
	for _, l := range s.listings {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetUserPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if prefs, exists := s.preferences[userID]; exists {
		copied := prefs
		copied.PreferredLocations = append(model.StringList(nil), prefs.PreferredLocations...)
		copied.BudgetHistory = append(model.IntList(nil), prefs.BudgetHistory...)
		copied.PreferredBedrooms = append(model.StringList(nil), prefs.PreferredBedrooms...)
		return &copied, nil
	}
	return &model.UserPreferences{UserID: userID}, nil
}

func (s *MemoryStore) SaveUserPreferences(ctx context.Context, prefs *model.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preferences[prefs.UserID] = *prefs
	return nil
}

func (s *MemoryStore) GetConversationMemory(ctx context.Context, userID string) (*model.ConversationMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if memory, exists := s.memories[userID]; exists {
		copied := memory
		copied.SearchHistory = append([]model.SearchRecord(nil), memory.SearchHistory...)
		if memory.LastSearch != nil {
			last := *memory.LastSearch
			copied.LastSearch = &last
		}
		return &copied, nil
	}
	return &model.ConversationMemory{UserID: userID}, nil
}

func (s *MemoryStore) SaveConversationMemory(ctx context.Context, memory *model.ConversationMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memories[memory.UserID] = *memory
	return nil
}

func (s *MemoryStore) GetSearchCache(ctx context.Context, key string) (*model.SearchCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, exists := s.cache[key]; exists {
		copied := entry
		copied.Results = append(model.PropertyList(nil), entry.Results...)
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) SaveSearchCache(ctx context.Context, entry *model.SearchCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if existing, exists := s.cache[entry.Key]; exists {
		stored.HitCount = existing.HitCount + 1
	} else {
		stored.HitCount = 1
	}
	s.cache[entry.Key] = stored
	return nil
}

func (s *MemoryStore) GetUserCurrency(ctx context.Context, userID string) (*model.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if currency, exists := s.currencies[userID]; exists {
		copied := currency
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) SaveUserCurrency(ctx context.Context, userID string, currency model.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currencies[userID] = currency
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
