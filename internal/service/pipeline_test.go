package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"estatescout/internal/model"
	"estatescout/internal/repository"
)

func searchResults() []model.WebResult {
	return []model.WebResult{
		{
			Title:   "Great 2BR in Austin - Zillow",
			Content: "Spacious 2 bedroom apartment for $1,500/mo, pets allowed, with updated kitchen and in-unit laundry near downtown Austin",
			URL:     "https://example.com/1",
		},
		{
			Title:   "Downtown Austin Rental",
			Content: "Modern 2 bed 2 bath pet friendly unit, rent: $1,900, walking distance to cafes and parks in central Austin",
			URL:     "https://example.com/2",
		},
		{
			Title:   "Quiet Austin Apartment",
			Content: "Comfortable 2 bedroom home on a calm street for $1,700/month with a small garden and reserved parking space",
			URL:     "https://example.com/3",
		},
	}
}

func newTestPipeline(t *testing.T, store repository.Store, search *stubSearch) (*Pipeline, *stubBrowser) {
	t.Helper()
	browser := &stubBrowser{}
	dataDir := t.TempDir()
	pipeline := NewPipeline(
		store,
		NewIntentClassifier(nil),
		NewCriteriaExtractor(nil),
		NewCurrencyResolver(nil),
		NewListingRetriever(search, nil),
		NewVisualVerifier(browser, nil, "http://localhost:3000", dataDir, 0),
		NewDossierAssembler(nil, dataDir),
		NewSearchCache(store, 24*time.Hour),
		PipelineOptions{FrontendURL: "http://localhost:3000", DefaultResults: 5, MaxResults: 10},
	)
	return pipeline, browser
}

func TestPipeline_Greeting(t *testing.T) {
	search := &stubSearch{}
	pipeline, browser := newTestPipeline(t, repository.NewMemoryStore(), search)

	result, err := pipeline.Run(context.Background(), "default", "hi")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Properties) != 0 {
		t.Errorf("Expected zero candidates for a greeting, got %d", len(result.Properties))
	}
	if result.State != "conversation" {
		t.Errorf("State = %q, want conversation", result.State)
	}
	if search.calls != 0 {
		t.Error("Expected no search call for a greeting")
	}
	if len(browser.navigations) != 0 {
		t.Error("Expected no browser activity for a greeting")
	}
}

func TestPipeline_EndToEndSearch(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{results: searchResults()}
	pipeline, _ := newTestPipeline(t, store, search)
	ctx := context.Background()

	result, err := pipeline.Run(ctx, "default", "2 bedroom apartment in Austin under $2000 pet friendly")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != "complete" {
		t.Errorf("State = %q, want complete", result.State)
	}
	if len(result.Properties) == 0 {
		t.Fatal("Expected candidates from the search path")
	}
	for i, prop := range result.Properties {
		if prop.Price > 2000 {
			t.Errorf("Property %d price %d exceeds ceiling", i+1, prop.Price)
		}
		if prop.CurrencyCode != "USD" {
			t.Errorf("Property %d missing currency tag", i+1)
		}
	}

	// Pet mention sets has_pet permanently and learns the turn's criteria.
	prefs, err := store.GetUserPreferences(ctx, "default")
	if err != nil {
		t.Fatalf("GetUserPreferences failed: %v", err)
	}
	if !prefs.HasPet {
		t.Error("Expected has_pet learned from the message")
	}
	if len(prefs.PreferredLocations) != 1 || prefs.PreferredLocations[0] != "Austin" {
		t.Errorf("PreferredLocations = %v, want [Austin]", prefs.PreferredLocations)
	}
	if len(prefs.BudgetHistory) != 1 || prefs.BudgetHistory[0] != 2000 {
		t.Errorf("BudgetHistory = %v, want [2000]", prefs.BudgetHistory)
	}

	// Listings persisted for each candidate.
	listings, err := store.ListListings(ctx, "default")
	if err != nil {
		t.Fatalf("ListListings failed: %v", err)
	}
	if len(listings) != len(result.Properties) {
		t.Errorf("Expected %d persisted listings, got %d", len(result.Properties), len(listings))
	}

	// Memory records the completed search.
	memory, err := store.GetConversationMemory(ctx, "default")
	if err != nil {
		t.Fatalf("GetConversationMemory failed: %v", err)
	}
	if memory.LastSearch == nil {
		t.Fatal("Expected last search recorded")
	}
	if memory.LastSearch.Criteria.MaxPrice != 2000 {
		t.Errorf("Recorded MaxPrice = %d, want 2000", memory.LastSearch.Criteria.MaxPrice)
	}

	// Second identical search: pet filter now applies from stored prefs.
	search.results = searchResults()
	result2, err := pipeline.Run(ctx, "default", "2 bedroom apartment in Austin under $2000 pet friendly")
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	for i, prop := range result2.Properties {
		if !prop.PetFriendly {
			t.Errorf("Property %d not pet friendly after preference filtering", i+1)
		}
	}
}

func TestPipeline_CacheHitSkipsStages(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{results: searchResults()}
	pipeline, browser := newTestPipeline(t, store, search)
	ctx := context.Background()

	// Explicit count keeps the requested size within the cached entry.
	message := "show me 3 apartments in Austin under $2000"

	if _, err := pipeline.Run(ctx, "default", message); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	firstSearchCalls := search.calls
	firstNavigations := len(browser.navigations)

	memBefore, _ := store.GetConversationMemory(ctx, "default")
	totalBefore := memBefore.TotalSearches()

	result, err := pipeline.Run(ctx, "default", message)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if !result.FromCache {
		t.Error("Expected second identical search to be served from cache")
	}
	if search.calls != firstSearchCalls {
		t.Error("Expected no new search provider call on cache hit")
	}
	if len(browser.navigations) != firstNavigations {
		t.Error("Expected no new browser activity on cache hit")
	}
	for i, prop := range result.Properties {
		if prop.CurrencyCode == "" {
			t.Errorf("Property %d missing currency label on cached response", i+1)
		}
	}

	// A cached response is not a new search for history purposes.
	memAfter, _ := store.GetConversationMemory(ctx, "default")
	if memAfter.TotalSearches() != totalBefore {
		t.Errorf("TotalSearches = %d, want unchanged %d after cache hit", memAfter.TotalSearches(), totalBefore)
	}
}

func TestPipeline_HistoryIndexing(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{results: searchResults()}
	pipeline, _ := newTestPipeline(t, store, search)
	ctx := context.Background()

	messages := []string{
		"2 bedroom apartment in Brooklyn under $2500",
		"studio in Seattle under $1500",
		"3 bedroom apartment in Austin under $3000",
	}
	for _, msg := range messages {
		if _, err := pipeline.Run(ctx, "default", msg); err != nil {
			t.Fatalf("Run(%q) failed: %v", msg, err)
		}
	}

	memory, _ := store.GetConversationMemory(ctx, "default")
	if memory.TotalSearches() != 3 {
		t.Errorf("TotalSearches = %d, want 3", memory.TotalSearches())
	}

	first, err := pipeline.Run(ctx, "default", "what was my first search")
	if err != nil {
		t.Fatalf("First-search lookup failed: %v", err)
	}
	if !strings.Contains(first.Response, "Brooklyn") {
		t.Errorf("First-search response %q should reference Brooklyn", first.Response)
	}
	if first.State != "memory_retrieval" {
		t.Errorf("State = %q, want memory_retrieval", first.State)
	}

	last, err := pipeline.Run(ctx, "default", "what was my last search")
	if err != nil {
		t.Fatalf("Last-search lookup failed: %v", err)
	}
	if !strings.Contains(last.Response, "Austin") {
		t.Errorf("Last-search response %q should reference Austin", last.Response)
	}

	second, err := pipeline.Run(ctx, "default", "what was my 2nd search")
	if err != nil {
		t.Fatalf("Nth lookup failed: %v", err)
	}
	if !strings.Contains(second.Response, "Seattle") {
		t.Errorf("Nth-search response %q should reference Seattle", second.Response)
	}

	// Index beyond the history is invalid.
	beyond, err := pipeline.Run(ctx, "default", "what was my 9th search")
	if err != nil {
		t.Fatalf("Out-of-range lookup failed: %v", err)
	}
	if !strings.Contains(beyond.Response, "isn't on record") {
		t.Errorf("Expected out-of-range message, got %q", beyond.Response)
	}
}

func TestPipeline_MemoryRetrievalUsesNoExternalCalls(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{results: searchResults()}
	pipeline, browser := newTestPipeline(t, store, search)
	ctx := context.Background()

	if _, err := pipeline.Run(ctx, "default", "2 bedroom apartment in Austin under $2000"); err != nil {
		t.Fatalf("Seed search failed: %v", err)
	}
	searchCalls := search.calls
	navigations := len(browser.navigations)

	result, err := pipeline.Run(ctx, "default", "what have i searched for so far")
	if err != nil {
		t.Fatalf("Memory retrieval failed: %v", err)
	}

	if result.State != "memory_retrieval" {
		t.Errorf("State = %q, want memory_retrieval", result.State)
	}
	if search.calls != searchCalls || len(browser.navigations) != navigations {
		t.Error("Expected no external calls during memory retrieval")
	}
	if !strings.Contains(result.Response, "Austin") {
		t.Errorf("Response %q should summarize the stored search", result.Response)
	}
}

func TestPipeline_PreferenceLearningIdempotence(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{results: searchResults()}
	pipeline, _ := newTestPipeline(t, store, search)
	ctx := context.Background()

	message := "2 bedroom apartment in Austin under $2000"

	if _, err := pipeline.Run(ctx, "default", message); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	// Force a fresh (non-cached) second search by clearing the cache entry
	// through a different result count request path: run with a distinct
	// message that normalizes to the same criteria is not possible here, so
	// learn directly a second time.
	prefs, _ := store.GetUserPreferences(ctx, "default")
	criteria := model.SearchCriteria{Location: "Austin", MaxPrice: 2000, Bedrooms: "2", Requirements: "none"}
	pipeline.learnPreferences(ctx, prefs, message, criteria)

	prefs, _ = store.GetUserPreferences(ctx, "default")
	if len(prefs.BudgetHistory) != 2 {
		t.Errorf("BudgetHistory length = %d, want 2 (same budget appended twice)", len(prefs.BudgetHistory))
	}
	if len(prefs.PreferredLocations) != 1 {
		t.Errorf("PreferredLocations = %v, want single deduplicated entry", prefs.PreferredLocations)
	}
	if len(prefs.PreferredBedrooms) != 1 {
		t.Errorf("PreferredBedrooms = %v, want single deduplicated entry", prefs.PreferredBedrooms)
	}
	if prefs.TypicalBudget != 2000 {
		t.Errorf("TypicalBudget = %d, want 2000", prefs.TypicalBudget)
	}
}

func TestPipeline_SearchProviderFailureIsFatal(t *testing.T) {
	store := repository.NewMemoryStore()
	search := &stubSearch{err: context.DeadlineExceeded}
	pipeline, _ := newTestPipeline(t, store, search)

	_, err := pipeline.Run(context.Background(), "default", "2 bedroom apartment in Austin under $2000")
	if err == nil {
		t.Fatal("Expected pipeline-level error to propagate")
	}
}
