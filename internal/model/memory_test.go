package model

import (
	"fmt"
	"testing"
)

func TestRecordBudgetEvictsOldest(t *testing.T) {
	prefs := &UserPreferences{UserID: "default"}

	for i := 1; i <= 8; i++ {
		prefs.RecordBudget(i * 1000)
	}

	if len(prefs.BudgetHistory) != MaxBudgetHistory {
		t.Fatalf("BudgetHistory length = %d, want %d", len(prefs.BudgetHistory), MaxBudgetHistory)
	}
	want := IntList{4000, 5000, 6000, 7000, 8000}
	for i, b := range want {
		if prefs.BudgetHistory[i] != b {
			t.Errorf("BudgetHistory[%d] = %d, want %d", i, prefs.BudgetHistory[i], b)
		}
	}
	if prefs.TypicalBudget != 6000 {
		t.Errorf("TypicalBudget = %d, want 6000", prefs.TypicalBudget)
	}
}

func TestRecordBudgetIgnoresNonPositive(t *testing.T) {
	prefs := &UserPreferences{UserID: "default"}
	prefs.RecordBudget(2000)
	prefs.RecordBudget(0)
	prefs.RecordBudget(-500)

	if len(prefs.BudgetHistory) != 1 {
		t.Fatalf("BudgetHistory length = %d, want 1", len(prefs.BudgetHistory))
	}
	if prefs.TypicalBudget != 2000 {
		t.Errorf("TypicalBudget = %d, want 2000", prefs.TypicalBudget)
	}
}

func TestRecordSearchEvictsOldest(t *testing.T) {
	memory := &ConversationMemory{UserID: "default"}

	for i := 1; i <= 13; i++ {
		memory.RecordSearch(SearchRecord{Query: fmt.Sprintf("search %d", i)})
	}

	if memory.LastSearch == nil || memory.LastSearch.Query != "search 13" {
		t.Fatalf("LastSearch = %+v, want search 13", memory.LastSearch)
	}
	if len(memory.SearchHistory) != MaxSearchHistory {
		t.Fatalf("SearchHistory length = %d, want %d", len(memory.SearchHistory), MaxSearchHistory)
	}
	// Searches 1 and 2 aged out; the window starts at 3.
	if memory.SearchHistory[0].Query != "search 3" {
		t.Errorf("oldest remembered = %q, want search 3", memory.SearchHistory[0].Query)
	}
	if memory.SearchHistory[MaxSearchHistory-1].Query != "search 12" {
		t.Errorf("newest in history = %q, want search 12", memory.SearchHistory[MaxSearchHistory-1].Query)
	}
	if got := memory.TotalSearches(); got != MaxSearchHistory+1 {
		t.Errorf("TotalSearches = %d, want %d", got, MaxSearchHistory+1)
	}

	if rec, ok := memory.Lookup(HistoryRef{Kind: HistoryFirst}); !ok || rec.Query != "search 3" {
		t.Errorf("first lookup = %+v, want search 3", rec)
	}
	if rec, ok := memory.Lookup(HistoryRef{Kind: HistoryNth, Index: MaxSearchHistory}); !ok || rec.Query != "search 12" {
		t.Errorf("Nth=%d lookup = %+v, want search 12", MaxSearchHistory, rec)
	}
	if _, ok := memory.Lookup(HistoryRef{Kind: HistoryNth, Index: MaxSearchHistory + 1}); ok {
		t.Errorf("Nth=%d lookup should miss once evicted", MaxSearchHistory+1)
	}
}
