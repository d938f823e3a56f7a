package templates

import (
	"encoding/json"

	"salesboard/internal/models"
)

// Signals is the client state Datastar sends with every request.
type Signals struct {
	Filters models.FilterConfig `json:"filters"`
	Sort    models.SortConfig   `json:"sort"`
	Top     int                 `json:"top"`
}

// ChartsSignal is the local signal holding chart data. Local signals are
// not sent back to the server.
const ChartsSignal = "_charts"

// Page is the data the dashboard shell is rendered with.
type Page struct {
	Title   string
	Options models.DimensionOptions
	Signals Signals
}

var chartCanvases = []string{"chart-top-products", "chart-category-stack", "chart-windows", "chart-pareto"}

// signalsJSON seeds data-signals with the initial state and an empty
// chart signal.
func signalsJSON(s Signals) (string, error) {
	b, err := json.Marshal(struct {
		Signals
		Charts struct{} `json:"_charts"`
	}{Signals: s})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// exportHref is a Datastar expression that builds an export link carrying
// the current filters, sort and top-N as query parameters.
func exportHref(ext string) string {
	return "'/api/export." + ext + "?' + new URLSearchParams({" +
		"category: $filters.category, salesman: $filters.salesman, city: $filters.city, " +
		"customerType: $filters.customerType, product: $filters.product, " +
		"fromDate: $filters.fromDate, toDate: $filters.toDate, " +
		"sortKey: $sort.key, sortDir: $sort.direction, top: $top}).toString()"
}
