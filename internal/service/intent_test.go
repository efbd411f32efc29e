package service

import (
	"context"
	"testing"

	"estatescout/internal/model"
)

func TestIntentClassifier_Patterns(t *testing.T) {
	classifier := NewIntentClassifier(nil)

	tests := []struct {
		name    string
		message string
		want    model.Intent
	}{
		{
			name:    "Simple greeting",
			message: "hi",
			want:    model.IntentGreeting,
		},
		{
			name:    "Longer greeting",
			message: "good morning!",
			want:    model.IntentGreeting,
		},
		{
			name:    "Full search query",
			message: "2 bedroom apartment in Austin under $2000 pet friendly",
			want:    model.IntentSearch,
		},
		{
			name:    "Search with single keyword and location",
			message: "apartment in Brooklyn",
			want:    model.IntentSearch,
		},
		{
			name:    "Memory retrieval",
			message: "what was my last search",
			want:    model.IntentMemory,
		},
		{
			name:    "Preferences recall",
			message: "show me my preferences",
			want:    model.IntentMemory,
		},
		{
			name:    "Follow up",
			message: "what about cheaper ones",
			want:    model.IntentFollowUp,
		},
		{
			name:    "Too vague",
			message: "ok",
			want:    model.IntentInvalid,
		},
		{
			name:    "Off topic",
			message: "the weather is nice today maybe",
			want:    model.IntentInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(context.Background(), tt.message)

			if result.Intent != tt.want {
				t.Errorf("Classify(%q) = %s, want %s (reason: %s)", tt.message, result.Intent, tt.want, result.Reason)
			}
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("Confidence out of range: %.2f", result.Confidence)
			}
		})
	}
}

func TestIntentClassifier_GenerativeFallback(t *testing.T) {
	gen := &stubGenerator{
		response: `{"intent": "search", "confidence": 0.8, "reason": "Implicit housing request"}`,
	}
	classifier := NewIntentClassifier(gen)

	// No keyword signal, more than three words, so the generative path runs.
	result := classifier.Classify(context.Background(), "somewhere cozy for my family downtown")

	if gen.calls != 1 {
		t.Fatalf("Expected 1 generative call, got %d", gen.calls)
	}
	if result.Intent != model.IntentSearch {
		t.Errorf("Intent = %s, want search", result.Intent)
	}
}

func TestIntentClassifier_UnknownGenerativeIntentIsInvalid(t *testing.T) {
	gen := &stubGenerator{
		response: `{"intent": "banter", "confidence": 0.9, "reason": "chit chat"}`,
	}
	classifier := NewIntentClassifier(gen)

	result := classifier.Classify(context.Background(), "well this is certainly something else")

	if result.Intent != model.IntentInvalid {
		t.Errorf("Intent = %s, want invalid for unknown category", result.Intent)
	}
}

func TestDetectHistoryLookup(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantKind  model.HistoryRefKind
		wantIndex int
		wantFound bool
	}{
		{
			name:      "Last search",
			message:   "what was my last search",
			wantKind:  model.HistoryLast,
			wantFound: true,
		},
		{
			name:      "First search",
			message:   "show me my first search",
			wantKind:  model.HistoryFirst,
			wantFound: true,
		},
		{
			name:      "Ordinal index",
			message:   "what was my 3rd search",
			wantKind:  model.HistoryNth,
			wantIndex: 3,
			wantFound: true,
		},
		{
			name:      "Numbered form",
			message:   "search number 2",
			wantKind:  model.HistoryNth,
			wantIndex: 2,
			wantFound: true,
		},
		{
			name:      "Not a history query",
			message:   "2 bedroom in Austin",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, found := DetectHistoryLookup(tt.message)
			if found != tt.wantFound {
				t.Fatalf("DetectHistoryLookup(%q) found = %v, want %v", tt.message, found, tt.wantFound)
			}
			if !found {
				return
			}
			if ref.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", ref.Kind, tt.wantKind)
			}
			if tt.wantKind == model.HistoryNth && ref.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", ref.Index, tt.wantIndex)
			}
		})
	}
}
