package model

// Sentinel values used when a criteria field cannot be determined.
const (
	LocationNotSpecified = "Not specified"
	NoRequirements       = "none"
)

// DefaultMaxPrice is assumed when the user states no budget ceiling.
const DefaultMaxPrice = 2500

// SearchCriteria represents structured search parameters derived from a
// natural language query. MaxPrice is always the exact number present in the
// user's text; generative extraction is advisory only.
type SearchCriteria struct {
	Location     string `json:"location"`
	MaxPrice     int    `json:"max_price"`
	Bedrooms     string `json:"bedrooms"`
	Requirements string `json:"requirements"`
}

// Currency is a resolved monetary unit.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// DefaultCurrency is used when nothing else can be inferred.
var DefaultCurrency = Currency{Code: "USD", Symbol: "$"}

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentSearch   Intent = "search"
	IntentFollowUp Intent = "follow_up"
	IntentMemory   Intent = "memory_retrieval"
	IntentInvalid  Intent = "invalid"
)

// IntentResult carries the classification decision for one message.
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// HistoryRefKind selects which stored search a history lookup targets.
type HistoryRefKind string

const (
	HistoryLast  HistoryRefKind = "last"
	HistoryFirst HistoryRefKind = "first"
	HistoryNth   HistoryRefKind = "nth"
)

// HistoryRef is a parsed history-index query ("my 3rd search").
// Index is 1-based and only meaningful for HistoryNth.
type HistoryRef struct {
	Kind  HistoryRefKind
	Index int
}

// ChatResult is the terminal output of one pipeline run.
type ChatResult struct {
	Response   string     `json:"response"`
	Properties []Property `json:"properties"`
	State      string     `json:"state"`
	FromCache  bool       `json:"from_cache,omitempty"`
}

// WebResult is one raw snippet returned by the web search provider.
type WebResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// UploadResult is the outcome of an object storage upload.
type UploadResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
	Error    string `json:"error,omitempty"`
}
