package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"estatescout/internal/model"
	"estatescout/internal/utils"
)

// CriteriaExtractor turns free-text queries into structured search criteria.
// Generative extraction is attempted first; its price output is always
// overridden by direct regex extraction over the raw text.
type CriteriaExtractor struct {
	generator Generator
}

// NewCriteriaExtractor creates a criteria extractor
func NewCriteriaExtractor(generator Generator) *CriteriaExtractor {
	return &CriteriaExtractor{generator: generator}
}

const extractSystemPrompt = `You are a property-search assistant. Your ONLY job is to read the user's message and pull out their exact search criteria.

RULES (follow every one):
1. location   - the city or neighbourhood the user typed. If none, use "Not specified".
2. max_price  - the EXACT dollar amount the user stated as their budget ceiling.
               DO NOT round, guess, or invent a number. If the user wrote "$2 000" return 2000.
               If no price is mentioned, return 2500.
3. bedrooms   - the number of bedrooms requested (as a string). Default "1".
4. requirements - any extras like "pet friendly", "parking", "gym", etc. If none, "none".

User stored preferences (merge if relevant): %s

Return ONLY a single valid JSON object - no markdown, no explanation:
{"location": "...", "max_price": <integer>, "bedrooms": "<string>", "requirements": "..."}`

// Extract derives SearchCriteria from the message. Stored preferences are
// passed to the generative step as a non-authoritative merge hint.
func (e *CriteriaExtractor) Extract(ctx context.Context, message string, prefs *model.UserPreferences) model.SearchCriteria {
	if e.generator != nil && e.generator.Enabled() {
		criteria, err := e.extractGenerative(ctx, message, prefs)
		if err == nil {
			log.Printf("🤖 AI extracted criteria: %+v", criteria)
			return criteria
		}
		log.Printf("⚠️ AI extraction failed: %v, using simple extraction", err)
	}
	return e.extractSimple(message)
}

func (e *CriteriaExtractor) extractGenerative(ctx context.Context, message string, prefs *model.UserPreferences) (model.SearchCriteria, error) {
	hint := "{}"
	if prefs != nil {
		if b, err := json.Marshal(prefs); err == nil {
			hint = string(b)
		}
	}

	raw, err := e.generator.Generate(ctx, fmt.Sprintf(extractSystemPrompt, hint), message)
	if err != nil {
		return model.SearchCriteria{}, err
	}

	// Generative output may use a numeric or string max_price; decode loosely
	// before validation.
	var decoded struct {
		Location     string      `json:"location"`
		MaxPrice     json.Number `json:"max_price"`
		Bedrooms     string      `json:"bedrooms"`
		Requirements string      `json:"requirements"`
	}
	if err := utils.ParseModelJSON(raw, &decoded); err != nil {
		return model.SearchCriteria{}, fmt.Errorf("failed to parse extraction output: %w", err)
	}

	criteria := model.SearchCriteria{
		Location:     strings.TrimSpace(decoded.Location),
		Bedrooms:     strings.TrimSpace(decoded.Bedrooms),
		Requirements: strings.TrimSpace(decoded.Requirements),
	}
	if v, err := decoded.MaxPrice.Int64(); err == nil {
		criteria.MaxPrice = int(v)
	}

	return e.validate(criteria, message), nil
}

// validate post-processes extracted criteria. The price stated in the user's
// text is the source of truth and always overrides the generative value.
func (e *CriteriaExtractor) validate(criteria model.SearchCriteria, message string) model.SearchCriteria {
	if price, ok := ExtractPrice(message); ok {
		criteria.MaxPrice = price
	} else if criteria.MaxPrice <= 0 {
		criteria.MaxPrice = model.DefaultMaxPrice
	}

	if criteria.Location == "" {
		criteria.Location = model.LocationNotSpecified
	}
	if criteria.Bedrooms == "" {
		criteria.Bedrooms = "1"
	}
	if criteria.Requirements == "" {
		criteria.Requirements = model.NoRequirements
	}
	return criteria
}

var (
	// Ordered by reliability: explicit $ or k tokens win over bare digits.
	priceDollarPattern = regexp.MustCompile(`(?i)\$\s?([\d,]+)(k)?`)
	priceKPattern      = regexp.MustCompile(`(?i)\b(\d+)(k)\b`)
	priceBudgetPattern = regexp.MustCompile(`(?i)(?:under|below|max|maximum|budget(?:\s+of)?|up\s+to|less\s+than)\s+\$?\s?([\d,]+)(k)?`)
	priceBarePattern   = regexp.MustCompile(`\b([\d,]{3,})\b`)
)

// ExtractPrice scans text for a budget ceiling. Bare values under 100 are
// interpreted as thousands ("2k" and "under 2" both mean 2000).
func ExtractPrice(text string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{priceDollarPattern, priceKPattern, priceBudgetPattern, priceBarePattern} {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := strings.ReplaceAll(match[1], ",", "")
		price, err := strconv.Atoi(raw)
		if err != nil || price <= 0 {
			continue
		}
		if len(match) > 2 && strings.EqualFold(match[2], "k") {
			price *= 1000
		}
		if price < 100 {
			price *= 1000
		}
		return price, true
	}
	return 0, false
}

var (
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`in\s+([a-z\s]+?)(?:\s+under|\s+apartment|\s+for|\s*,|$)`),
		regexp.MustCompile(`at\s+([a-z\s]+?)(?:\s+under|\s+apartment|\s+for|\s*,|$)`),
		regexp.MustCompile(`near\s+([a-z\s]+?)(?:\s+under|\s+apartment|\s+for|\s*,|$)`),
	}
	locationTrailer = regexp.MustCompile(`\s+(under|apartment|for|the)\s*$`)

	knownCities = []string{
		"brooklyn", "austin", "zurich", "switzerland", "london",
		"paris", "tokyo", "berlin", "madrid", "rome", "boston",
		"seattle", "chicago", "miami", "denver", "new york",
		"san francisco", "los angeles", "toronto", "vancouver",
	}

	twoBedroomPattern   = regexp.MustCompile(`\b2\b|two\s*bed`)
	threeBedroomPattern = regexp.MustCompile(`\b3\b|three\s*bed`)
)

// extractSimple is the deterministic fallback covering the same four fields.
func (e *CriteriaExtractor) extractSimple(message string) model.SearchCriteria {
	lower := strings.ToLower(message)
	criteria := model.SearchCriteria{}

	location := ""
	for _, pattern := range locationPatterns {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			location = strings.TrimSpace(match[1])
			location = strings.TrimSpace(locationTrailer.ReplaceAllString(location, ""))
			break
		}
	}
	if location == "" {
		for _, city := range knownCities {
			if strings.Contains(lower, city) {
				location = city
				break
			}
		}
	}
	if location != "" {
		criteria.Location = titleCase(location)
	} else {
		criteria.Location = model.LocationNotSpecified
	}

	if price, ok := ExtractPrice(message); ok {
		criteria.MaxPrice = price
	} else {
		criteria.MaxPrice = model.DefaultMaxPrice
	}

	switch {
	case strings.Contains(lower, "studio"):
		criteria.Bedrooms = "1"
	case twoBedroomPattern.MatchString(lower):
		criteria.Bedrooms = "2"
	case threeBedroomPattern.MatchString(lower):
		criteria.Bedrooms = "3"
	default:
		criteria.Bedrooms = "1"
	}

	var reqs []string
	if containsPetWord(lower) {
		reqs = append(reqs, "pet friendly")
	}
	if len(reqs) > 0 {
		criteria.Requirements = strings.Join(reqs, ", ")
	} else {
		criteria.Requirements = model.NoRequirements
	}

	return criteria
}

// containsPetWord reports whether text mentions pets.
func containsPetWord(lower string) bool {
	for _, w := range []string{"pet", "dog", "cat"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var (
	maxResultsDigitPattern = regexp.MustCompile(`(?i)(?:show|give|find|get|list)\s+(?:me\s+)?(?:the\s+)?(?:top\s+)?(\d+)\s+(?:propert|apartment|listing|result|home|place|option)`)
	maxResultsLoosePattern = regexp.MustCompile(`(?i)\b(\d+)\s+(?:propert|apartment|listing|result|home|place|option)`)
	maxResultsWordPattern  = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten)\s+(?:propert|apartment|listing|result|home|place|option)`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ExtractMaxResults detects an explicitly requested result count, clamped to
// [1, maxResults]. Defaults to defaultResults when nothing is stated.
func ExtractMaxResults(text string, defaultResults, maxResults int) int {
	lower := strings.ToLower(text)

	for _, pattern := range []*regexp.Regexp{maxResultsDigitPattern, maxResultsLoosePattern} {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil {
				return clampResults(n, maxResults)
			}
		}
	}

	if match := maxResultsWordPattern.FindStringSubmatch(lower); match != nil {
		if n, ok := numberWords[strings.ToLower(match[1])]; ok {
			return clampResults(n, maxResults)
		}
	}

	return defaultResults
}

func clampResults(n, maxResults int) int {
	if n < 1 {
		return 1
	}
	if n > maxResults {
		return maxResults
	}
	return n
}
