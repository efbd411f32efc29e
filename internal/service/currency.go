package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"estatescout/internal/model"
	"estatescout/internal/utils"
)

// CurrencyResolver detects the monetary unit implied by a message. The
// generative path handles codes, names, symbols and location-implied
// currency; the deterministic fallback covers the common cases.
type CurrencyResolver struct {
	generator Generator
}

// NewCurrencyResolver creates a currency resolver
func NewCurrencyResolver(generator Generator) *CurrencyResolver {
	return &CurrencyResolver{generator: generator}
}

const currencySystemPrompt = `You are a currency detection expert. Analyze the user's message and identify any currency mentioned.

Detect currency from:
- Currency codes: USD, EUR, GBP, INR, JPY, CNY, CHF, CAD, AUD, etc.
- Currency names: dollars, euros, pounds, rupees, yen, yuan, francs, etc.
- Currency symbols: $, €, £, ₹, ¥, ₩, etc.
- Context clues: "in New York" -> USD, "in London" -> GBP, "in Mumbai" -> INR

Return ONLY valid JSON with no markdown:
{"code": "<3-letter ISO code>", "symbol": "<unicode symbol>"}

Examples:
- "apartment in Brooklyn under $2000" -> {"code": "USD", "symbol": "$"}
- "flat in London under £1500" -> {"code": "GBP", "symbol": "£"}
- "apartment in Mumbai under 50000 rupees" -> {"code": "INR", "symbol": "₹"}
- "property in Tokyo under ¥200000" -> {"code": "JPY", "symbol": "¥"}
- "apartment in Paris under 1500 euros" -> {"code": "EUR", "symbol": "€"}

If no currency is mentioned, infer from location or default to USD.`

// Detect resolves the currency implied by the message.
func (r *CurrencyResolver) Detect(ctx context.Context, message string) model.Currency {
	if strings.TrimSpace(message) == "" {
		return model.DefaultCurrency
	}

	if r.generator != nil && r.generator.Enabled() {
		currency, err := r.detectGenerative(ctx, message)
		if err == nil {
			log.Printf("💱 Detected currency: %s (%s)", currency.Code, currency.Symbol)
			return currency
		}
		log.Printf("⚠️ AI currency detection failed: %v, using fallback", err)
	}

	return fallbackCurrency(message)
}

func (r *CurrencyResolver) detectGenerative(ctx context.Context, message string) (model.Currency, error) {
	raw, err := r.generator.Generate(ctx, currencySystemPrompt, message)
	if err != nil {
		return model.Currency{}, err
	}

	var currency model.Currency
	if err := utils.ParseModelJSON(raw, &currency); err != nil {
		return model.Currency{}, err
	}

	currency.Code = strings.ToUpper(strings.TrimSpace(currency.Code))
	if !validCurrency(currency) {
		return fallbackCurrency(message), nil
	}
	return currency, nil
}

// validCurrency checks for a 3-letter alphabetic code and a short symbol.
func validCurrency(c model.Currency) bool {
	if len(c.Code) != 3 {
		return false
	}
	for _, r := range c.Code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return c.Symbol != "" && utf8.RuneCountInString(c.Symbol) <= 5
}

var (
	currencySymbols = []struct {
		symbol string
		c      model.Currency
	}{
		{"₹", model.Currency{Code: "INR", Symbol: "₹"}},
		{"€", model.Currency{Code: "EUR", Symbol: "€"}},
		{"£", model.Currency{Code: "GBP", Symbol: "£"}},
		{"¥", model.Currency{Code: "JPY", Symbol: "¥"}},
		{"₩", model.Currency{Code: "KRW", Symbol: "₩"}},
	}

	currencyCodePatterns = []struct {
		pattern *regexp.Regexp
		c       model.Currency
	}{
		{regexp.MustCompile(`(?i)\bINR\b`), model.Currency{Code: "INR", Symbol: "₹"}},
		{regexp.MustCompile(`(?i)\bEUR\b`), model.Currency{Code: "EUR", Symbol: "€"}},
		{regexp.MustCompile(`(?i)\bGBP\b`), model.Currency{Code: "GBP", Symbol: "£"}},
		{regexp.MustCompile(`(?i)\bJPY\b`), model.Currency{Code: "JPY", Symbol: "¥"}},
		{regexp.MustCompile(`(?i)\bCHF\b`), model.Currency{Code: "CHF", Symbol: "CHF"}},
	}

	currencyNamePatterns = []struct {
		pattern *regexp.Regexp
		c       model.Currency
	}{
		{regexp.MustCompile(`(?i)\brupees?\b`), model.Currency{Code: "INR", Symbol: "₹"}},
		{regexp.MustCompile(`(?i)\beuros?\b`), model.Currency{Code: "EUR", Symbol: "€"}},
		{regexp.MustCompile(`(?i)\bpounds?\b`), model.Currency{Code: "GBP", Symbol: "£"}},
		{regexp.MustCompile(`(?i)\byen\b`), model.Currency{Code: "JPY", Symbol: "¥"}},
		{regexp.MustCompile(`(?i)\bfrancs?\b`), model.Currency{Code: "CHF", Symbol: "CHF"}},
	}

	cityCurrencyTable = []struct {
		city string
		c    model.Currency
	}{
		{"india", model.Currency{Code: "INR", Symbol: "₹"}},
		{"mumbai", model.Currency{Code: "INR", Symbol: "₹"}},
		{"delhi", model.Currency{Code: "INR", Symbol: "₹"}},
		{"bangalore", model.Currency{Code: "INR", Symbol: "₹"}},
		{"london", model.Currency{Code: "GBP", Symbol: "£"}},
		{"paris", model.Currency{Code: "EUR", Symbol: "€"}},
		{"berlin", model.Currency{Code: "EUR", Symbol: "€"}},
		{"tokyo", model.Currency{Code: "JPY", Symbol: "¥"}},
		{"zurich", model.Currency{Code: "CHF", Symbol: "CHF"}},
	}
)

// fallbackCurrency handles the obvious cases: unicode symbols first as most
// reliable, then ISO codes, then names, then a small city lookup.
func fallbackCurrency(message string) model.Currency {
	lower := strings.ToLower(message)

	for _, entry := range currencySymbols {
		if strings.Contains(message, entry.symbol) {
			return entry.c
		}
	}
	for _, entry := range currencyCodePatterns {
		if entry.pattern.MatchString(message) {
			return entry.c
		}
	}
	for _, entry := range currencyNamePatterns {
		if entry.pattern.MatchString(message) {
			return entry.c
		}
	}
	for _, entry := range cityCurrencyTable {
		if strings.Contains(lower, entry.city) {
			return entry.c
		}
	}

	return model.DefaultCurrency
}

// Resolve detects the message's currency and reconciles it with the stored
// per-user preference. A newly named non-USD currency becomes the new
// preference; otherwise the stored choice stays sticky.
func (r *CurrencyResolver) Resolve(ctx context.Context, message string, stored *model.Currency) (model.Currency, bool) {
	detected := r.Detect(ctx, message)

	if stored == nil {
		return detected, detected != model.DefaultCurrency
	}
	if detected.Code != model.DefaultCurrency.Code && detected.Code != stored.Code {
		return detected, true
	}
	return *stored, false
}
