package service

import (
	"context"
	"testing"

	"estatescout/internal/model"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantPrice int
		wantFound bool
	}{
		{
			name:      "Dollar amount",
			text:      "2 bedroom apartment in Austin under $2000",
			wantPrice: 2000,
			wantFound: true,
		},
		{
			name:      "Dollar amount with comma",
			text:      "somewhere under $1,500 please",
			wantPrice: 1500,
			wantFound: true,
		},
		{
			name:      "K shorthand",
			text:      "budget is 2k per month",
			wantPrice: 2000,
			wantFound: true,
		},
		{
			name:      "Dollar with k",
			text:      "max $3k",
			wantPrice: 3000,
			wantFound: true,
		},
		{
			name:      "Small dollar value scales to thousands",
			text:      "under $2 per month",
			wantPrice: 2000,
			wantFound: true,
		},
		{
			name:      "Budget phrase without symbol",
			text:      "3 bedroom in Seattle below 1800",
			wantPrice: 1800,
			wantFound: true,
		},
		{
			name:      "Bedroom count not mistaken for price",
			text:      "2 bedroom apartment in Austin",
			wantPrice: 0,
			wantFound: false,
		},
		{
			name:      "No price at all",
			text:      "apartment in Brooklyn",
			wantPrice: 0,
			wantFound: false,
		},
		{
			name:      "Explicit dollar wins over bare number",
			text:      "apartment at 450 Main St under $2000",
			wantPrice: 2000,
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, found := ExtractPrice(tt.text)
			if found != tt.wantFound {
				t.Fatalf("ExtractPrice(%q) found = %v, want %v", tt.text, found, tt.wantFound)
			}
			if price != tt.wantPrice {
				t.Errorf("ExtractPrice(%q) = %d, want %d", tt.text, price, tt.wantPrice)
			}
		})
	}
}

func TestExtractMaxResults(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "Explicit count",
			text: "show me 3 properties",
			want: 3,
		},
		{
			name: "Default when unstated",
			text: "find apartments",
			want: 5,
		},
		{
			name: "Clamped to maximum",
			text: "give me 15 listings",
			want: 10,
		},
		{
			name: "Number word",
			text: "find me two apartments in Austin",
			want: 2,
		},
		{
			name: "Count without verb",
			text: "I want 4 listings downtown",
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMaxResults(tt.text, 5, 10)
			if got != tt.want {
				t.Errorf("ExtractMaxResults(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCriteriaExtractor_SimpleFallback(t *testing.T) {
	extractor := NewCriteriaExtractor(nil)

	tests := []struct {
		name         string
		message      string
		wantLocation string
		wantPrice    int
		wantBedrooms string
		wantReqs     string
	}{
		{
			name:         "Full query",
			message:      "2 bedroom apartment in Austin under $2000 pet friendly",
			wantLocation: "Austin",
			wantPrice:    2000,
			wantBedrooms: "2",
			wantReqs:     "pet friendly",
		},
		{
			name:         "Known city without preposition",
			message:      "brooklyn studio",
			wantLocation: "Brooklyn",
			wantPrice:    model.DefaultMaxPrice,
			wantBedrooms: "1",
			wantReqs:     model.NoRequirements,
		},
		{
			name:         "No location",
			message:      "need a 3 bedroom under $3000",
			wantLocation: model.LocationNotSpecified,
			wantPrice:    3000,
			wantBedrooms: "3",
			wantReqs:     model.NoRequirements,
		},
		{
			name:         "Dog mention sets pet requirement",
			message:      "apartment in Seattle for me and my dog",
			wantLocation: "Seattle",
			wantPrice:    model.DefaultMaxPrice,
			wantBedrooms: "1",
			wantReqs:     "pet friendly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := extractor.Extract(context.Background(), tt.message, nil)

			if criteria.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", criteria.Location, tt.wantLocation)
			}
			if criteria.MaxPrice != tt.wantPrice {
				t.Errorf("MaxPrice = %d, want %d", criteria.MaxPrice, tt.wantPrice)
			}
			if criteria.Bedrooms != tt.wantBedrooms {
				t.Errorf("Bedrooms = %q, want %q", criteria.Bedrooms, tt.wantBedrooms)
			}
			if criteria.Requirements != tt.wantReqs {
				t.Errorf("Requirements = %q, want %q", criteria.Requirements, tt.wantReqs)
			}
		})
	}
}

// stubGenerator returns a canned response for generative calls in tests.
type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Enabled() bool { return true }

func TestCriteriaExtractor_PriceOverridesGenerativeOutput(t *testing.T) {
	// The model invents a different price; the literal text value must win.
	gen := &stubGenerator{
		response: `{"location": "Austin", "max_price": 1850, "bedrooms": "2", "requirements": "pet friendly"}`,
	}
	extractor := NewCriteriaExtractor(gen)

	criteria := extractor.Extract(context.Background(), "2 bedroom in Austin under $2000 pet friendly", nil)

	if criteria.MaxPrice != 2000 {
		t.Errorf("MaxPrice = %d, want literal text value 2000", criteria.MaxPrice)
	}
	if criteria.Location != "Austin" {
		t.Errorf("Location = %q, want Austin", criteria.Location)
	}
}

func TestCriteriaExtractor_FencedGenerativeOutput(t *testing.T) {
	gen := &stubGenerator{
		response: "```json\n{\"location\": \"Brooklyn\", \"max_price\": 2500, \"bedrooms\": \"1\", \"requirements\": \"none\"}\n```",
	}
	extractor := NewCriteriaExtractor(gen)

	criteria := extractor.Extract(context.Background(), "studio in Brooklyn", nil)

	if criteria.Location != "Brooklyn" {
		t.Errorf("Location = %q, want Brooklyn", criteria.Location)
	}
	if criteria.MaxPrice != model.DefaultMaxPrice {
		t.Errorf("MaxPrice = %d, want default %d", criteria.MaxPrice, model.DefaultMaxPrice)
	}
}
