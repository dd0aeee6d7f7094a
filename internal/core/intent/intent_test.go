package intent

import (
	"testing"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceBounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  *float64
		max  *float64
	}{
		{name: "None", text: "black leather bag"},
		{name: "Under", text: "bag under 150", max: ptr(150)},
		{name: "UpToDollar", text: "watch up to $99.99", max: ptr(99.99)},
		{name: "LessThan", text: "shoes LESS THAN 80", max: ptr(80)},
		{name: "Above", text: "bracelet above 20.5", min: ptr(20.5)},
		{name: "GreaterThan", text: "greater than 10 sunglasses", min: ptr(10)},
		{
			name: "Both",
			text: "bag over 50 and below 120",
			min:  ptr(50),
			max:  ptr(120),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := PriceBounds(tt.text)
			assert.Equal(t, tt.min, b.Min)
			assert.Equal(t, tt.max, b.Max)
		})
	}
}

func TestCategoryKeywords(t *testing.T) {
	e := New()

	assert.Equal(t,
		[]string{"watch", "bag"},
		e.CategoryKeywords("A BAG to match my Watch"),
	)
	assert.Nil(t, e.CategoryKeywords("something nice"))
}

func TestStripPricePhrases(t *testing.T) {
	assert.Equal(t, "bag", StripPricePhrases("bag under 150"))
	assert.Equal(t,
		"red shoes and",
		StripPricePhrases("red  shoes over $40 and below 90"),
	)
	assert.Empty(t, StripPricePhrases("under 10"))
}

func TestEmail(t *testing.T) {
	email, ok := Email("reach me at John.Doe+x@Example.com please")
	require.True(t, ok)
	assert.Equal(t, "John.Doe+x@Example.com", email)

	_, ok = Email("no address here")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	e := New()

	t.Run("StrictCancel", func(t *testing.T) {
		in := e.Classify("Cancel order 66a1f2 for john@example.com")
		assert.Equal(t, domain.IntentCancelOrder, in.Kind)
		assert.Equal(t, "66a1f2", in.OrderID)
		assert.Equal(t, "john@example.com", in.Email)
	})

	t.Run("AmbiguousCancel", func(t *testing.T) {
		in := e.Classify("please cancel my order")
		assert.Equal(t, domain.IntentAmbiguousCancel, in.Kind)
	})

	t.Run("CancelWinsOverTracking", func(t *testing.T) {
		in := e.Classify("cancel my order, where is my order?")
		assert.Equal(t, domain.IntentAmbiguousCancel, in.Kind)
	})

	t.Run("TrackWithoutEmail", func(t *testing.T) {
		in := e.Classify("where is my order")
		assert.Equal(t, domain.IntentTrackOrder, in.Kind)
		assert.Empty(t, in.Email)
	})

	t.Run("TrackWithEmail", func(t *testing.T) {
		in := e.Classify("tracking for jane@shop.io")
		assert.Equal(t, domain.IntentTrackOrder, in.Kind)
		assert.Equal(t, "jane@shop.io", in.Email)
	})

	t.Run("ProductSearch", func(t *testing.T) {
		in := e.Classify("show me bags under 100")
		assert.Equal(t, domain.IntentProductSearch, in.Kind)
	})

	t.Run("CustomRulesFirstMatchWins", func(t *testing.T) {
		rules := []Rule{
			{Name: "always", Match: func(string) (domain.Intent, bool) {
				return domain.Intent{Kind: domain.IntentTrackOrder}, true
			}},
			{Name: "never", Match: func(string) (domain.Intent, bool) {
				return domain.Intent{Kind: domain.IntentCancelOrder}, true
			}},
		}
		custom := NewWithRules(rules, Categories)
		assert.Equal(t, domain.IntentTrackOrder, custom.Classify("x").Kind)
	})
}

func TestFilters(t *testing.T) {
	f := New().Filters("bag under 150")
	assert.Equal(t, []string{"bag"}, f.Keywords)
	assert.Equal(t, ptr(150), f.Bounds.Max)
	assert.Nil(t, f.Bounds.Min)
	assert.Equal(t, "bag", f.Residual)
	assert.True(t, f.Active())
}

func ptr(v float64) *float64 {
	return &v
}
