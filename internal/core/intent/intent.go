// Package intent extracts structured filters and a conversational intent
// from free text.
//
// Classification is an ordered list of rules, the first matching rule wins.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/niksmo/shop-assistant/internal/core/domain"
)

// Categories is the closed vocabulary of category keywords.
var Categories = []string{"watch", "bag", "sunglasses", "bracelet", "shoes"}

var trackingKeywords = []string{
	"track",
	"tracking",
	"order status",
	"where is my order",
	"order update",
	"my order",
}

var (
	maxPriceRe = regexp.MustCompile(
		`(?i)\b(?:under|below|less than|up to)\s*\$?(\d+(?:\.\d{1,2})?)`,
	)
	minPriceRe = regexp.MustCompile(
		`(?i)\b(?:above|over|more than|greater than)\s*\$?(\d+(?:\.\d{1,2})?)`,
	)
	emailRe = regexp.MustCompile(
		`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`,
	)
	strictCancelRe = regexp.MustCompile(
		`(?i)cancel order\s+([\w-]+).*?([\w.+-]+@[\w.-]+\.\w+)`,
	)
	looseCancelRe = regexp.MustCompile(`(?i)cancel.*order`)
	spacesRe      = regexp.MustCompile(`\s+`)
)

// A Rule recognizes one intent. Match reports false when the rule
// does not apply to the text.
type Rule struct {
	Name  string
	Match func(text string) (domain.Intent, bool)
}

type Extractor struct {
	rules      []Rule
	categories []string
}

// New returns an [Extractor] with the default rules:
// strict cancel, ambiguous cancel, tracking.
// Text matching no rule is a product search.
func New() Extractor {
	return NewWithRules(DefaultRules(), Categories)
}

func NewWithRules(rules []Rule, categories []string) Extractor {
	return Extractor{rules: rules, categories: categories}
}

func DefaultRules() []Rule {
	return []Rule{
		{Name: "cancel_order", Match: matchStrictCancel},
		{Name: "ambiguous_cancel", Match: matchLooseCancel},
		{Name: "track_order", Match: matchTracking},
	}
}

func (e Extractor) Classify(text string) domain.Intent {
	for _, r := range e.rules {
		if in, ok := r.Match(text); ok {
			return in
		}
	}
	return domain.Intent{Kind: domain.IntentProductSearch}
}

func (e Extractor) Filters(text string) domain.Filters {
	return domain.Filters{
		Bounds:   PriceBounds(text),
		Keywords: e.CategoryKeywords(text),
		Residual: StripPricePhrases(text),
	}
}

// CategoryKeywords returns the vocabulary tokens contained in text,
// in vocabulary order.
func (e Extractor) CategoryKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, c := range e.categories {
		if strings.Contains(lower, c) {
			found = append(found, c)
		}
	}
	return found
}

func PriceBounds(text string) (b domain.PriceBounds) {
	b.Max = matchPrice(maxPriceRe, text)
	b.Min = matchPrice(minPriceRe, text)
	return
}

func matchPrice(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// StripPricePhrases removes price phrases and collapses whitespace.
func StripPricePhrases(text string) string {
	text = maxPriceRe.ReplaceAllString(text, " ")
	text = minPriceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
}

// Email returns the first email shaped substring of text.
func Email(text string) (string, bool) {
	m := emailRe.FindString(text)
	return m, m != ""
}

func matchStrictCancel(text string) (domain.Intent, bool) {
	m := strictCancelRe.FindStringSubmatch(text)
	if m == nil {
		return domain.Intent{}, false
	}
	return domain.Intent{
		Kind:    domain.IntentCancelOrder,
		OrderID: m[1],
		Email:   m[2],
	}, true
}

func matchLooseCancel(text string) (domain.Intent, bool) {
	if !looseCancelRe.MatchString(text) {
		return domain.Intent{}, false
	}
	return domain.Intent{Kind: domain.IntentAmbiguousCancel}, true
}

func matchTracking(text string) (domain.Intent, bool) {
	lower := strings.ToLower(text)
	for _, k := range trackingKeywords {
		if strings.Contains(lower, k) {
			email, _ := Email(text)
			return domain.Intent{
				Kind:  domain.IntentTrackOrder,
				Email: email,
			}, true
		}
	}
	return domain.Intent{}, false
}
