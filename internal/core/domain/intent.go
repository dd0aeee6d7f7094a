package domain

// PriceBounds holds optional inclusive price limits.
type PriceBounds struct {
	Min *float64
	Max *float64
}

func (b PriceBounds) Active() bool {
	return b.Min != nil || b.Max != nil
}

func (b PriceBounds) Contains(price float64) bool {
	if b.Min != nil && price < *b.Min {
		return false
	}
	if b.Max != nil && price > *b.Max {
		return false
	}
	return true
}

// Filters are the deterministic constraints extracted from free text.
type Filters struct {
	Bounds   PriceBounds
	Keywords []string
	// Residual is the text left after price phrases are removed,
	// used as a search term when no category keyword is present.
	Residual string
}

func (f Filters) Active() bool {
	return f.Bounds.Active() || len(f.Keywords) != 0
}

type IntentKind int

const (
	IntentProductSearch IntentKind = iota
	IntentCancelOrder
	IntentAmbiguousCancel
	IntentTrackOrder
)

func (k IntentKind) String() string {
	switch k {
	case IntentCancelOrder:
		return "cancel_order"
	case IntentAmbiguousCancel:
		return "ambiguous_cancel"
	case IntentTrackOrder:
		return "track_order"
	default:
		return "product_search"
	}
}

type Intent struct {
	Kind    IntentKind
	OrderID string
	Email   string
}
