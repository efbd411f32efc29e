package model

import "time"

// Bounds for the learned-preference and memory sequences.
const (
	MaxBudgetHistory = 5
	MaxSearchHistory = 10
)

// UserPreferences holds preferences learned across completed searches.
// Mutated only by the persistence stage.
type UserPreferences struct {
	UserID             string     `json:"user_id" db:"user_id"`
	HasPet             bool       `json:"has_pet" db:"has_pet"`
	PreferredLocations StringList `json:"preferred_locations" db:"preferred_locations"`
	BudgetHistory      IntList    `json:"budget_history" db:"budget_history"`
	TypicalBudget      int        `json:"typical_budget" db:"typical_budget"`
	PreferredBedrooms  StringList `json:"preferred_bedrooms" db:"preferred_bedrooms"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// AddLocation appends a novel location to the ordered set.
func (p *UserPreferences) AddLocation(location string) {
	if location == "" || location == LocationNotSpecified {
		return
	}
	for _, l := range p.PreferredLocations {
		if l == location {
			return
		}
	}
	p.PreferredLocations = append(p.PreferredLocations, location)
}

// AddBedrooms appends a novel bedroom count to the ordered set.
func (p *UserPreferences) AddBedrooms(bedrooms string) {
	if bedrooms == "" {
		return
	}
	for _, b := range p.PreferredBedrooms {
		if b == bedrooms {
			return
		}
	}
	p.PreferredBedrooms = append(p.PreferredBedrooms, bedrooms)
}

// RecordBudget appends a budget to the bounded history (oldest evicted first)
// and recomputes the integer average.
func (p *UserPreferences) RecordBudget(budget int) {
	if budget <= 0 {
		return
	}
	p.BudgetHistory = append(p.BudgetHistory, budget)
	if len(p.BudgetHistory) > MaxBudgetHistory {
		p.BudgetHistory = p.BudgetHistory[len(p.BudgetHistory)-MaxBudgetHistory:]
	}
	sum := 0
	for _, b := range p.BudgetHistory {
		sum += b
	}
	p.TypicalBudget = sum / len(p.BudgetHistory)
}

// SearchRecord is one completed search as remembered across turns.
type SearchRecord struct {
	Query       string         `json:"query"`
	Criteria    SearchCriteria `json:"criteria"`
	Currency    Currency       `json:"currency"`
	ResultCount int            `json:"result_count"`
	SearchedAt  time.Time      `json:"searched_at"`
}

// ConversationMemory stores a user's most recent completed search and the
// bounded history of the searches it superseded.
type ConversationMemory struct {
	UserID        string         `json:"user_id"`
	LastSearch    *SearchRecord  `json:"last_search,omitempty"`
	SearchHistory []SearchRecord `json:"search_history"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RecordSearch installs rec as the current search. The previous last search
// is appended to the history first so no record is lost until it ages past
// the cap.
func (m *ConversationMemory) RecordSearch(rec SearchRecord) {
	if m.LastSearch != nil {
		m.SearchHistory = append(m.SearchHistory, *m.LastSearch)
		if len(m.SearchHistory) > MaxSearchHistory {
			m.SearchHistory = m.SearchHistory[len(m.SearchHistory)-MaxSearchHistory:]
		}
	}
	m.LastSearch = &rec
}

// TotalSearches reports how many searches are currently recalled.
func (m *ConversationMemory) TotalSearches() int {
	n := len(m.SearchHistory)
	if m.LastSearch != nil {
		n++
	}
	return n
}

// Lookup resolves a history reference. "first" is the oldest remembered
// search, "last" the current one, and a 1-based N addresses the history
// sequence; N beyond the history length is invalid.
func (m *ConversationMemory) Lookup(ref HistoryRef) (*SearchRecord, bool) {
	switch ref.Kind {
	case HistoryLast:
		if m.LastSearch != nil {
			return m.LastSearch, true
		}
	case HistoryFirst:
		if len(m.SearchHistory) > 0 {
			return &m.SearchHistory[0], true
		}
		if m.LastSearch != nil {
			return m.LastSearch, true
		}
	case HistoryNth:
		if ref.Index >= 1 && ref.Index <= len(m.SearchHistory) {
			return &m.SearchHistory[ref.Index-1], true
		}
	}
	return nil, false
}

// SearchCacheEntry stores previously fetched candidates keyed by a stable
// hash of normalized criteria.
type SearchCacheEntry struct {
	Key       string         `json:"key"`
	Criteria  SearchCriteria `json:"criteria"`
	Results   PropertyList   `json:"results"`
	HitCount  int            `json:"hit_count"`
	CreatedAt time.Time      `json:"created_at"`
}
