package models

// RawRecord is one loosely structured input row. Keys may use any of the
// accepted spellings for a field; values are scalars (string, number, bool or nil).
type RawRecord map[string]any

// CanonicalRecord is a normalized sales record. Values are never mutated
// after the normalizer builds them.
type CanonicalRecord struct {
	Product      string  `json:"product"`
	Category     string  `json:"category,omitempty"`
	CustomerID   string  `json:"customerId,omitempty"`
	CustomerName string  `json:"customerName,omitempty"`
	CustomerType string  `json:"customerType,omitempty"`
	Salesman     string  `json:"salesman,omitempty"`
	Village      string  `json:"village,omitempty"`
	District     string  `json:"district,omitempty"`
	City         string  `json:"city,omitempty"`
	WeekNumber   int     `json:"weekNumber"`
	Year         int     `json:"year"`
	WeekStart    string  `json:"weekStart,omitempty"`
	Revenue      float64 `json:"revenue"`
	Packs        float64 `json:"packs"`
	Cartons      float64 `json:"cartons"`
	Bales        float64 `json:"bales"`
	Boxes        float64 `json:"boxes"`
	Quantity     float64 `json:"quantity"`

	Raw RawRecord `json:"-"`
}

// Fields returns the record as a RawRecord keyed by canonical field names.
// Optional text fields are omitted when empty.
func (r CanonicalRecord) Fields() RawRecord {
	out := RawRecord{
		"product":    r.Product,
		"weekNumber": r.WeekNumber,
		"year":       r.Year,
		"revenue":    r.Revenue,
		"packs":      r.Packs,
		"cartons":    r.Cartons,
		"bales":      r.Bales,
		"boxes":      r.Boxes,
	}
	optional := map[string]string{
		"category":     r.Category,
		"customerId":   r.CustomerID,
		"customerName": r.CustomerName,
		"customerType": r.CustomerType,
		"salesman":     r.Salesman,
		"village":      r.Village,
		"district":     r.District,
		"city":         r.City,
		"weekStart":    r.WeekStart,
	}
	for k, v := range optional {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
