package repository

import (
	"context"

	"estatescout/internal/model"
)

// Store is the persistent collection set the pipeline depends on: listings,
// user preferences, conversation memory, the search cache, and per-user
// currency preferences. Implementations must tolerate concurrent requests;
// per-user documents are last-write-wins by design.
type Store interface {
	InsertListing(ctx context.Context, listing *model.Listing) error
	ListListings(ctx context.Context, userID string) ([]model.Listing, error)

	GetUserPreferences(ctx context.Context, userID string) (*model.UserPreferences, error)
	SaveUserPreferences(ctx context.Context, prefs *model.UserPreferences) error

	GetConversationMemory(ctx context.Context, userID string) (*model.ConversationMemory, error)
	SaveConversationMemory(ctx context.Context, memory *model.ConversationMemory) error

	GetSearchCache(ctx context.Context, key string) (*model.SearchCacheEntry, error)
	SaveSearchCache(ctx context.Context, entry *model.SearchCacheEntry) error

	GetUserCurrency(ctx context.Context, userID string) (*model.Currency, error)
	SaveUserCurrency(ctx context.Context, userID string, currency model.Currency) error

	Close() error
}
