package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatescout/internal/model"
	"estatescout/internal/repository"
)

// Pipeline sequences the agent stages for one chat request: intent routing,
// criteria extraction, cache check, retrieval, visual verification, dossier
// assembly and persistence. Stages run strictly in order since each consumes
// the previous stage's output.
type Pipeline struct {
	store      repository.Store
	intents    *IntentClassifier
	extractor  *CriteriaExtractor
	currencies *CurrencyResolver
	retriever  *ListingRetriever
	verifier   *VisualVerifier
	assembler  *DossierAssembler
	cache      *SearchCache

	frontendURL    string
	defaultResults int
	maxResults     int
}

// PipelineOptions carries the request-independent pipeline settings.
type PipelineOptions struct {
	FrontendURL    string
	DefaultResults int
	MaxResults     int
}

// NewPipeline assembles the orchestrator from its stages.
func NewPipeline(
	store repository.Store,
	intents *IntentClassifier,
	extractor *CriteriaExtractor,
	currencies *CurrencyResolver,
	retriever *ListingRetriever,
	verifier *VisualVerifier,
	assembler *DossierAssembler,
	cache *SearchCache,
	opts PipelineOptions,
) *Pipeline {
	if opts.DefaultResults <= 0 {
		opts.DefaultResults = 5
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	return &Pipeline{
		store:          store,
		intents:        intents,
		extractor:      extractor,
		currencies:     currencies,
		retriever:      retriever,
		verifier:       verifier,
		assembler:      assembler,
		cache:          cache,
		frontendURL:    opts.FrontendURL,
		defaultResults: opts.DefaultResults,
		maxResults:     opts.MaxResults,
	}
}

// Run processes one user message end to end.
func (p *Pipeline) Run(ctx context.Context, userID, message string) (*model.ChatResult, error) {
	// Explicit history-index queries short-circuit before classification.
	if ref, ok := DetectHistoryLookup(message); ok {
		return p.handleHistoryLookup(ctx, userID, ref)
	}

	intent := p.intents.Classify(ctx, message)
	log.Printf("🎯 Intent: %s (confidence %.2f) - %s", intent.Intent, intent.Confidence, intent.Reason)

	switch intent.Intent {
	case model.IntentGreeting:
		return &model.ChatResult{
			Response: "Hello! I'm EstateScout, your property search assistant. How can I help you find a place today?",
			State:    "conversation",
		}, nil
	case model.IntentInvalid:
		return &model.ChatResult{
			Response: "I'm not quite sure I understand what you're looking for. I help find rental properties. Try something like: 'Find me a 2 bedroom apartment in Brooklyn under $2500' or 'Show me studios in Austin under $1500'.",
			State:    "conversation",
		}, nil
	case model.IntentFollowUp:
		return &model.ChatResult{
			Response: "I'd be happy to help with that! However, I need a bit more information. Could you please specify your full search criteria again? For example: 'Find me a 2 bedroom apartment in Austin under $2000'.",
			State:    "conversation",
		}, nil
	case model.IntentMemory:
		return p.handleMemoryRetrieval(ctx, userID)
	}

	return p.runSearch(ctx, userID, message)
}

// handleHistoryLookup answers "my last/first/Nth search" from stored memory
// without touching any external capability.
func (p *Pipeline) handleHistoryLookup(ctx context.Context, userID string, ref model.HistoryRef) (*model.ChatResult, error) {
	memory, err := p.store.GetConversationMemory(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load conversation memory: %v", err)
		memory = &model.ConversationMemory{UserID: userID}
	}

	record, ok := memory.Lookup(ref)
	if !ok {
		response := "I don't have that search on record yet. Once you've run a few searches I can recall them for you."
		if ref.Kind == model.HistoryNth {
			response = fmt.Sprintf("I only remember %d earlier searches, so search number %d isn't on record.", len(memory.SearchHistory), ref.Index)
		}
		return &model.ChatResult{Response: response, State: "memory_retrieval"}, nil
	}

	return &model.ChatResult{
		Response: describeSearchRecord(ref, record),
		State:    "memory_retrieval",
	}, nil
}

func describeSearchRecord(ref model.HistoryRef, rec *model.SearchRecord) string {
	label := "last"
	switch ref.Kind {
	case model.HistoryFirst:
		label = "first"
	case model.HistoryNth:
		label = fmt.Sprintf("number %d", ref.Index)
	}
	return fmt.Sprintf(
		"Your %s search was %q - %s bedroom(s) in %s under %s%d, and it returned %d propert%s.",
		label, rec.Query, rec.Criteria.Bedrooms, rec.Criteria.Location,
		rec.Currency.Symbol, rec.Criteria.MaxPrice,
		rec.ResultCount, pluralYIES(rec.ResultCount),
	)
}

func pluralYIES(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// handleMemoryRetrieval summarizes stored memory and learned preferences.
// No external search or browser calls are triggered.
func (p *Pipeline) handleMemoryRetrieval(ctx context.Context, userID string) (*model.ChatResult, error) {
	memory, err := p.store.GetConversationMemory(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load conversation memory: %v", err)
		memory = &model.ConversationMemory{UserID: userID}
	}
	prefs, err := p.store.GetUserPreferences(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load user preferences: %v", err)
		prefs = &model.UserPreferences{UserID: userID}
	}

	if memory.LastSearch == nil {
		return &model.ChatResult{
			Response: "You haven't searched for anything yet. Tell me what you're looking for, like 'Find me a 2 bedroom apartment in Austin under $2000'.",
			State:    "memory_retrieval",
		}, nil
	}

	var b strings.Builder
	last := memory.LastSearch
	fmt.Fprintf(&b, "Your most recent search was %q - %s bedroom(s) in %s under %s%d (%d results).",
		last.Query, last.Criteria.Bedrooms, last.Criteria.Location,
		last.Currency.Symbol, last.Criteria.MaxPrice, last.ResultCount)
	if n := memory.TotalSearches(); n > 1 {
		fmt.Fprintf(&b, " I remember %d searches in total.", n)
	}
	if len(prefs.PreferredLocations) > 0 {
		fmt.Fprintf(&b, " Your preferred locations so far: %s.", strings.Join(prefs.PreferredLocations, ", "))
	}
	if prefs.TypicalBudget > 0 {
		fmt.Fprintf(&b, " Your typical budget is around %d.", prefs.TypicalBudget)
	}
	if prefs.HasPet {
		b.WriteString(" I'll keep prioritizing pet-friendly places for you.")
	}

	return &model.ChatResult{Response: b.String(), State: "memory_retrieval"}, nil
}

// runSearch executes the full search path: criteria, currency, cache,
// retrieval, verification, dossier assembly and persistence.
func (p *Pipeline) runSearch(ctx context.Context, userID, message string) (*model.ChatResult, error) {
	// Preference, memory and currency records are read once up front and
	// written once at the end. Concurrent requests for the same user are
	// last-write-wins.
	prefs, err := p.store.GetUserPreferences(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load user preferences: %v", err)
		prefs = &model.UserPreferences{UserID: userID}
	}
	memory, err := p.store.GetConversationMemory(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load conversation memory: %v", err)
		memory = &model.ConversationMemory{UserID: userID}
	}
	storedCurrency, err := p.store.GetUserCurrency(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load currency preference: %v", err)
		storedCurrency = nil
	}

	currency, currencyChanged := p.currencies.Resolve(ctx, message, storedCurrency)
	if currencyChanged {
		if err := p.store.SaveUserCurrency(ctx, userID, currency); err != nil {
			log.Printf("⚠️ Failed to persist currency preference: %v", err)
		}
	}

	criteria := p.extractor.Extract(ctx, message, prefs)
	maxResults := ExtractMaxResults(message, p.defaultResults, p.maxResults)
	log.Printf("📋 Criteria: %+v, max results: %d", criteria, maxResults)

	// Cache hit skips retrieval, verification, assembly and persistence,
	// and does not count as a new search for history purposes.
	if cached, hit := p.cache.Get(ctx, criteria, maxResults); hit {
		p.labelProperties(cached, currency)
		return &model.ChatResult{
			Response:   searchSummary(len(cached)),
			Properties: cached,
			State:      "complete",
			FromCache:  true,
		}, nil
	}

	properties, err := p.retriever.Retrieve(ctx, criteria, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search pipeline failed for user %s: %w", userID, err)
	}

	if prefs.HasPet {
		properties = filterPetFriendly(properties)
		log.Printf("🐾 Pet filter applied: %d properties remain", len(properties))
	}

	screenshots := p.verifier.Verify(ctx, properties)
	p.assembler.Assemble(ctx, properties, screenshots, currency)

	p.labelProperties(properties, currency)
	p.resolveImageURLs(properties)

	// Preference learning and listing persistence are independent; a
	// failure in one never blocks the other.
	p.learnPreferences(ctx, prefs, message, criteria)
	p.persistListings(ctx, userID, properties)

	memory.RecordSearch(model.SearchRecord{
		Query:       message,
		Criteria:    criteria,
		Currency:    currency,
		ResultCount: len(properties),
		SearchedAt:  time.Now(),
	})
	if err := p.store.SaveConversationMemory(ctx, memory); err != nil {
		log.Printf("⚠️ Failed to save conversation memory: %v", err)
	}

	if err := p.cache.Put(ctx, criteria, properties); err != nil {
		log.Printf("⚠️ Failed to update search cache: %v", err)
	}

	return &model.ChatResult{
		Response:   searchSummary(len(properties)),
		Properties: properties,
		State:      "complete",
	}, nil
}

func searchSummary(n int) string {
	if n == 0 {
		return "I didn't find any properties matching your exact criteria. Try adjusting your search parameters like budget, location, or number of bedrooms."
	}
	noun := "properties"
	if n == 1 {
		noun = "property"
	}
	return fmt.Sprintf("I found %d %s matching your criteria. Each listing includes detailed information, street view images, and draft lease agreements.", n, noun)
}

func filterPetFriendly(properties []model.Property) []model.Property {
	out := properties[:0]
	for _, prop := range properties {
		if prop.PetFriendly {
			out = append(out, prop)
		}
	}
	return out
}

// labelProperties stamps the resolved currency onto each candidate.
func (p *Pipeline) labelProperties(properties []model.Property, currency model.Currency) {
	for i := range properties {
		properties[i].CurrencyCode = currency.Code
		properties[i].CurrencySymbol = currency.Symbol
	}
}

// resolveImageURLs prefers the durable upload URL, falling back to a
// frontend-served path under the dossier.
func (p *Pipeline) resolveImageURLs(properties []model.Property) {
	for i := range properties {
		prop := &properties[i]
		switch {
		case prop.CloudinaryURL != "":
			prop.ImageURL = prop.CloudinaryURL
		case prop.ScreenshotPath != "":
			prop.ImageURL = fmt.Sprintf("%s/%s", p.frontendURL, prop.ScreenshotPath)
		}
	}
}

// learnPreferences merges this turn's signals into the stored preferences:
// pet mention is monotonic, locations and bedrooms are append-only sets, and
// the budget joins the bounded history.
func (p *Pipeline) learnPreferences(ctx context.Context, prefs *model.UserPreferences, message string, criteria model.SearchCriteria) {
	if containsPetWord(strings.ToLower(message)) {
		prefs.HasPet = true
	}
	prefs.AddLocation(criteria.Location)
	prefs.RecordBudget(criteria.MaxPrice)
	prefs.AddBedrooms(criteria.Bedrooms)

	if err := p.store.SaveUserPreferences(ctx, prefs); err != nil {
		log.Printf("⚠️ Failed to save user preferences: %v", err)
	}
}

// persistListings writes each finalized candidate. Per-listing failures are
// logged and skipped; the batch continues.
func (p *Pipeline) persistListings(ctx context.Context, userID string, properties []model.Property) {
	saved := 0
	for i := range properties {
		listing := &model.Listing{
			ID:        uuid.NewString(),
			UserID:    userID,
			Property:  properties[i],
			CreatedAt: time.Now(),
		}
		if err := p.store.InsertListing(ctx, listing); err != nil {
			log.Printf("⚠️ Failed to save listing %d: %v", i+1, err)
			continue
		}
		saved++
	}
	log.Printf("💾 Saved %d/%d listings", saved, len(properties))
}
