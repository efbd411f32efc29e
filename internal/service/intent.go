package service

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"

	"estatescout/internal/model"
	"estatescout/internal/utils"
)

// IntentClassifier routes a user message to one of the terminal intents.
// Fast pattern checks run first; a generative classifier handles ambiguous
// non-trivial messages, with a deterministic keyword fallback.
type IntentClassifier struct {
	generator Generator
}

// NewIntentClassifier creates an intent classifier
func NewIntentClassifier(generator Generator) *IntentClassifier {
	return &IntentClassifier{generator: generator}
}

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|greetings|good morning|good afternoon|good evening)`),
	regexp.MustCompile(`^(what's up|whats up|how are you|how's it going)`),
	regexp.MustCompile(`^(yo|sup|howdy)`),
}

var memoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`what (was|were) my`),
	regexp.MustCompile(`(show|tell) me my (last|previous|recent|past|first) search`),
	regexp.MustCompile(`my (search|searches) (history|so far)`),
	regexp.MustCompile(`what (have i|did i) search`),
	regexp.MustCompile(`(remember|recall) (my|what i)`),
	regexp.MustCompile(`my preferences`),
}

var searchKeywords = []string{
	"apartment", "property", "house", "room", "bedroom", "studio",
	"rent", "rental", "lease", "find", "search", "looking for",
	"need", "want", "show me", "under", "budget", "price",
}

var locationKeywords = []string{
	"in", "at", "near", "around", "city", "area", "neighborhood",
	"brooklyn", "austin", "new york", "san francisco", "london",
}

var followUpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(show|tell|give|find) me (more|another|different)`),
	regexp.MustCompile(`what about`),
	regexp.MustCompile(`how about`),
	regexp.MustCompile(`similar to`),
	regexp.MustCompile(`like (the|that) (last|previous)`),
	regexp.MustCompile(`(same|similar) (but|with)`),
	regexp.MustCompile(`more like`),
	regexp.MustCompile(`again`),
}

const intentSystemPrompt = `You are an intent classifier for a property search assistant.
Classify the user's message into ONE of these categories:

1. "greeting" - Simple greetings, pleasantries, or general conversation
2. "search" - Property/apartment search queries with criteria
3. "follow_up" - Questions about previous searches or modifications
4. "memory_retrieval" - Requests to recall past searches or stored preferences
5. "invalid" - Unclear, off-topic, or irrelevant queries

Respond ONLY with valid JSON:
{"intent": "<category>", "confidence": <0-1>, "reason": "<brief explanation>"}`

// Classify determines the intent of a message. No side effects.
func (c *IntentClassifier) Classify(ctx context.Context, message string) model.IntentResult {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, pattern := range greetingPatterns {
		if pattern.MatchString(lower) {
			return model.IntentResult{
				Intent:     model.IntentGreeting,
				Confidence: 0.95,
				Reason:     "Detected greeting pattern",
			}
		}
	}

	for _, pattern := range memoryPatterns {
		if pattern.MatchString(lower) {
			return model.IntentResult{
				Intent:     model.IntentMemory,
				Confidence: 0.9,
				Reason:     "Detected memory retrieval pattern",
			}
		}
	}

	searchScore := 0
	for _, kw := range searchKeywords {
		if strings.Contains(lower, kw) {
			searchScore++
		}
	}
	locationScore := 0
	for _, kw := range locationKeywords {
		if containsWord(lower, kw) {
			locationScore++
		}
	}

	if searchScore >= 2 || (searchScore >= 1 && locationScore >= 1) {
		return model.IntentResult{
			Intent:     model.IntentSearch,
			Confidence: 0.9,
			Reason:     "Found " + strconv.Itoa(searchScore) + " search keywords and " + strconv.Itoa(locationScore) + " location indicators",
		}
	}

	for _, pattern := range followUpPatterns {
		if pattern.MatchString(lower) {
			return model.IntentResult{
				Intent:     model.IntentFollowUp,
				Confidence: 0.85,
				Reason:     "Detected follow-up pattern",
			}
		}
	}

	// Ambiguous non-trivial messages go to the generative classifier.
	if c.generator != nil && c.generator.Enabled() && len(strings.Fields(message)) > 3 {
		if result, err := c.classifyGenerative(ctx, message); err == nil {
			return result
		} else {
			log.Printf("⚠️ AI intent classification failed: %v", err)
		}
	}

	if len(strings.Fields(message)) <= 2 && searchScore == 0 {
		return model.IntentResult{
			Intent:     model.IntentInvalid,
			Confidence: 0.7,
			Reason:     "Message too vague or unclear",
		}
	}

	if searchScore >= 1 || locationScore >= 1 {
		return model.IntentResult{
			Intent:     model.IntentSearch,
			Confidence: 0.6,
			Reason:     "Possible search intent with weak indicators",
		}
	}

	return model.IntentResult{
		Intent:     model.IntentInvalid,
		Confidence: 0.5,
		Reason:     "Unable to determine clear intent",
	}
}

func (c *IntentClassifier) classifyGenerative(ctx context.Context, message string) (model.IntentResult, error) {
	raw, err := c.generator.Generate(ctx, intentSystemPrompt, message)
	if err != nil {
		return model.IntentResult{}, err
	}

	var result model.IntentResult
	if err := utils.ParseModelJSON(raw, &result); err != nil {
		return model.IntentResult{}, err
	}

	switch result.Intent {
	case model.IntentGreeting, model.IntentSearch, model.IntentFollowUp, model.IntentMemory, model.IntentInvalid:
	default:
		result.Intent = model.IntentInvalid
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}

// containsWord matches kw as a whole word so short location prepositions
// ("in", "at") do not fire inside longer words.
func containsWord(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

var (
	lastSearchPattern  = regexp.MustCompile(`my (last|latest|most recent|previous) search`)
	firstSearchPattern = regexp.MustCompile(`my (first|earliest|1st) search`)
	nthSearchPattern   = regexp.MustCompile(`my (\d+)(?:st|nd|rd|th) search`)
	numberedPattern    = regexp.MustCompile(`search (?:number|#)\s*(\d+)`)
)

// DetectHistoryLookup detects an explicit history-index query. It runs before
// generic classification and short-circuits straight to history retrieval.
func DetectHistoryLookup(message string) (model.HistoryRef, bool) {
	lower := strings.ToLower(message)

	if firstSearchPattern.MatchString(lower) {
		return model.HistoryRef{Kind: model.HistoryFirst}, true
	}
	if lastSearchPattern.MatchString(lower) {
		return model.HistoryRef{Kind: model.HistoryLast}, true
	}
	for _, pattern := range []*regexp.Regexp{nthSearchPattern, numberedPattern} {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			n, err := strconv.Atoi(match[1])
			if err != nil || n < 1 {
				continue
			}
			return model.HistoryRef{Kind: model.HistoryNth, Index: n}, true
		}
	}
	return model.HistoryRef{}, false
}
