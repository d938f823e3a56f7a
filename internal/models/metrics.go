package models

// WeekEntry is one point of a product's weekly series.
type WeekEntry struct {
	Year      int     `json:"year"`
	Week      int     `json:"week"`
	Revenue   float64 `json:"revenue"`
	Quantity  float64 `json:"quantity"`
	WeekStart string  `json:"weekStart,omitempty"`
}

// ProductMetrics holds the windowed performance figures of one product.
// Weeks is ordered ascending by (Year, Week).
type ProductMetrics struct {
	Product        string      `json:"product"`
	Weeks          []WeekEntry `json:"weeks"`
	AvgRevenue     float64     `json:"avgRevenue"`
	L4WRevenue     float64     `json:"l4wRevenue"`
	C4WRevenue     float64     `json:"c4wRevenue"`
	GrowthL4WvsC4W float64     `json:"growthL4WvsC4W"`
	GrowthYoY      float64     `json:"growthYoY"`
	TotalQuantity  float64     `json:"totalQuantity"`
}

// FilterConfig is the set of optional record predicates. Empty fields do not constrain.
type FilterConfig struct {
	Category     string `json:"category" validate:"max=200"`
	Salesman     string `json:"salesman" validate:"max=200"`
	City         string `json:"city" validate:"max=200"`
	CustomerType string `json:"customerType" validate:"max=200"`
	Product      string `json:"product" validate:"max=200"`
	FromDate     string `json:"fromDate" validate:"max=64"`
	ToDate       string `json:"toDate" validate:"max=64"`
}

// IsEmpty reports whether no predicate is set.
func (f FilterConfig) IsEmpty() bool {
	return f == FilterConfig{}
}

type SortKey string

const (
	SortByL4WRevenue    SortKey = "l4wRevenue"
	SortByAvgRevenue    SortKey = "avgRevenue"
	SortByTotalQuantity SortKey = "totalQuantity"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig selects the ranking field and direction.
type SortConfig struct {
	Key       SortKey       `json:"key" validate:"omitempty,oneof=l4wRevenue avgRevenue totalQuantity"`
	Direction SortDirection `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// DefaultSort ranks by trailing four-week revenue, highest first.
func DefaultSort() SortConfig {
	return SortConfig{Key: SortByL4WRevenue, Direction: SortDesc}
}
