package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"estatescout/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore handles database operations
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// ensureSchema creates the collection tables when they do not exist yet.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_user_created ON listings (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT PRIMARY KEY,
			has_pet BOOLEAN NOT NULL DEFAULT FALSE,
			preferred_locations JSONB,
			budget_history JSONB,
			typical_budget INTEGER NOT NULL DEFAULT 0,
			preferred_bedrooms JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_memory (
			user_id TEXT PRIMARY KEY,
			last_search JSONB,
			search_history JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS search_cache (
			cache_key TEXT PRIMARY KEY,
			criteria JSONB NOT NULL,
			results JSONB NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_currency (
			user_id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			symbol TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping() error {
	return s.db.Ping()
}

// InsertListing persists one finalized property record.
func (s *PostgresStore) InsertListing(ctx context.Context, listing *model.Listing) error {
	data, err := json.Marshal(listing.Property)
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}

	query := `INSERT INTO listings (id, user_id, data, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, listing.ID, listing.UserID, data, listing.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// ListListings returns a user's stored listings, newest first.
func (s *PostgresStore) ListListings(ctx context.Context, userID string) ([]model.Listing, error) {
	type row struct {
		ID        string    `db:"id"`
		UserID    string    `db:"user_id"`
		Data      []byte    `db:"data"`
		CreatedAt time.Time `db:"created_at"`
	}

	var rows []row
	query := `SELECT id, user_id, data, created_at FROM listings WHERE user_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	listings := make([]model.Listing, 0, len(rows))
	for _, r := range rows {
		listing := model.Listing{ID: r.ID, UserID: r.UserID, CreatedAt: r.CreatedAt}
		if err := json.Unmarshal(r.Data, &listing.Property); err != nil {
			return nil, fmt.Errorf("failed to decode listing %s: %w", r.ID, err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// GetUserPreferences returns stored preferences, or a fresh record when the
// user has none yet.
func (s *PostgresStore) GetUserPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	query := `
		SELECT user_id, has_pet, preferred_locations, budget_history, typical_budget, preferred_bedrooms, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	err := s.db.GetContext(ctx, &prefs, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &model.UserPreferences{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get user preferences: %w", err)
	}
	return &prefs, nil
}

// SaveUserPreferences upserts the user's preference document.
func (s *PostgresStore) SaveUserPreferences(ctx context.Context, prefs *model.UserPreferences) error {
	query := `
		INSERT INTO user_preferences (user_id, has_pet, preferred_locations, budget_history, typical_budget, preferred_bedrooms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			has_pet = EXCLUDED.has_pet,
			preferred_locations = EXCLUDED.preferred_locations,
			budget_history = EXCLUDED.budget_history,
			typical_budget = EXCLUDED.typical_budget,
			preferred_bedrooms = EXCLUDED.preferred_bedrooms,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		prefs.UserID, prefs.HasPet, prefs.PreferredLocations,
		prefs.BudgetHistory, prefs.TypicalBudget, prefs.PreferredBedrooms)
	if err != nil {
		return fmt.Errorf("failed to save user preferences: %w", err)
	}
	return nil
}

// GetConversationMemory returns the user's memory document, or an empty one.
func (s *PostgresStore) GetConversationMemory(ctx context.Context, userID string) (*model.ConversationMemory, error) {
	type row struct {
		UserID        string    `db:"user_id"`
		LastSearch    []byte    `db:"last_search"`
		SearchHistory []byte    `db:"search_history"`
		UpdatedAt     time.Time `db:"updated_at"`
	}

	var r row
	query := `SELECT user_id, last_search, search_history, updated_at FROM conversation_memory WHERE user_id = $1`
	err := s.db.GetContext(ctx, &r, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &model.ConversationMemory{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get conversation memory: %w", err)
	}

	memory := &model.ConversationMemory{UserID: r.UserID, UpdatedAt: r.UpdatedAt}
	if len(r.LastSearch) > 0 {
		var last model.SearchRecord
		if err := json.Unmarshal(r.LastSearch, &last); err != nil {
			return nil, fmt.Errorf("failed to decode last search: %w", err)
		}
		memory.LastSearch = &last
	}
	if len(r.SearchHistory) > 0 {
		if err := json.Unmarshal(r.SearchHistory, &memory.SearchHistory); err != nil {
			return nil, fmt.Errorf("failed to decode search history: %w", err)
		}
	}
	return memory, nil
}

// SaveConversationMemory upserts the user's memory document.
func (s *PostgresStore) SaveConversationMemory(ctx context.Context, memory *model.ConversationMemory) error {
	var lastSearch []byte
	if memory.LastSearch != nil {
		data, err := json.Marshal(memory.LastSearch)
		if err != nil {
			return fmt.Errorf("failed to encode last search: %w", err)
		}
		lastSearch = data
	}
	history, err := json.Marshal(memory.SearchHistory)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}

	query := `
		INSERT INTO conversation_memory (user_id, last_search, search_history, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			last_search = EXCLUDED.last_search,
			search_history = EXCLUDED.search_history,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, memory.UserID, lastSearch, history); err != nil {
		return fmt.Errorf("failed to save conversation memory: %w", err)
	}
	return nil
}

// GetSearchCache returns the cache entry for a criteria hash, or nil.
func (s *PostgresStore) GetSearchCache(ctx context.Context, key string) (*model.SearchCacheEntry, error) {
	type row struct {
		CacheKey  string    `db:"cache_key"`
		Criteria  []byte    `db:"criteria"`
		Results   []byte    `db:"results"`
		HitCount  int       `db:"hit_count"`
		CreatedAt time.Time `db:"created_at"`
	}

	var r row
	query := `SELECT cache_key, criteria, results, hit_count, created_at FROM search_cache WHERE cache_key = $1`
	err := s.db.GetContext(ctx, &r, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search cache: %w", err)
	}

	entry := &model.SearchCacheEntry{Key: r.CacheKey, HitCount: r.HitCount, CreatedAt: r.CreatedAt}
	if err := json.Unmarshal(r.Criteria, &entry.Criteria); err != nil {
		return nil, fmt.Errorf("failed to decode cached criteria: %w", err)
	}
	if err := json.Unmarshal(r.Results, &entry.Results); err != nil {
		return nil, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return entry, nil
}

// SaveSearchCache upserts a cache entry, replacing stored results and
// timestamp and incrementing the usage counter.
func (s *PostgresStore) SaveSearchCache(ctx context.Context, entry *model.SearchCacheEntry) error {
	criteria, err := json.Marshal(entry.Criteria)
	if err != nil {
		return fmt.Errorf("failed to encode criteria: %w", err)
	}
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	query := `
		INSERT INTO search_cache (cache_key, criteria, results, hit_count, created_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			criteria = EXCLUDED.criteria,
			results = EXCLUDED.results,
			hit_count = search_cache.hit_count + 1,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, entry.Key, criteria, results, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to save search cache: %w", err)
	}
	return nil
}

// GetUserCurrency returns the stored currency preference, or nil.
func (s *PostgresStore) GetUserCurrency(ctx context.Context, userID string) (*model.Currency, error) {
	var currency model.Currency
	query := `SELECT code, symbol FROM user_currency WHERE user_id = $1`
	err := s.db.GetContext(ctx, &currency, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user currency: %w", err)
	}
	return &currency, nil
}

// SaveUserCurrency upserts the user's currency preference.
func (s *PostgresStore) SaveUserCurrency(ctx context.Context, userID string, currency model.Currency) error {
	query := `
		INSERT INTO user_currency (user_id, code, symbol, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			code = EXCLUDED.code,
			symbol = EXCLUDED.symbol,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, userID, currency.Code, currency.Symbol); err != nil {
		return fmt.Errorf("failed to save user currency: %w", err)
	}
	return nil
}
