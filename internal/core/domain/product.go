package domain

type (
	Product struct {
		ProductID   string
		Name        string
		Price       float64
		Category    string
		Subcategory string
		Brand       string
		Description string
		Image       string
		Stock       int
	}

	// A ProductBrief is the compact projection of [Product]
	// returned alongside conversational replies.
	ProductBrief struct {
		ProductID string
		Name      string
		Image     string
		Price     float64
	}
)

func (p Product) Brief() ProductBrief {
	return ProductBrief{
		ProductID: p.ProductID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     p.Price,
	}
}

// A ProductFilter is a moderation rule for a single product.
type ProductFilter struct {
	ProductID string
	Blocked   bool
}

// A ProductQuery describes an attribute store lookup:
// any of Terms matches name, brand, category or description,
// combined with the price bounds.
type ProductQuery struct {
	Terms      []string
	Bounds     PriceBounds
	ExcludeIDs []string
	// Limit caps the result, zero means no cap.
	Limit int
}

func (q ProductQuery) Empty() bool {
	return len(q.Terms) == 0 && !q.Bounds.Active()
}
