package models

// StackSeries is one product's values across the category rows of a stacked chart.
type StackSeries struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// CategoryStack holds per-category revenue for each top product.
type CategoryStack struct {
	Labels   []string      `json:"labels"`
	Datasets []StackSeries `json:"datasets"`
}

// GeoMatrix is a city by product revenue matrix. Matrix[i][j] belongs to Rows[i], Cols[j].
type GeoMatrix struct {
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Matrix [][]float64 `json:"matrix"`
}

// RollingWindows holds trailing and preceding four-period revenue sums per period.
type RollingWindows struct {
	Labels []string  `json:"labels"`
	L4W    []float64 `json:"l4w"`
	C4W    []float64 `json:"c4w"`
}

// TrendSeries is the recent revenue sequence of one product.
type TrendSeries struct {
	Label  string    `json:"label"`
	Series []float64 `json:"series"`
}

// ParetoChart lists products by descending revenue with cumulative share.
type ParetoChart struct {
	Labels        []string  `json:"labels"`
	Values        []float64 `json:"values"`
	CumulativePct []float64 `json:"cumulativePct"`
}

// TopProductsChart pairs revenue and quantity for the top products.
type TopProductsChart struct {
	Labels   []string  `json:"labels"`
	Sales    []float64 `json:"sales"`
	Quantity []float64 `json:"quantity"`
}

// Rollups groups every derived view of one pipeline pass.
type Rollups struct {
	TopProducts   TopProductsChart `json:"topProducts"`
	CategoryStack CategoryStack    `json:"categoryStack"`
	GeoMatrix     GeoMatrix        `json:"geoMatrix"`
	Windows       RollingWindows   `json:"windows"`
	Trends        []TrendSeries    `json:"trends"`
	Pareto        ParetoChart      `json:"pareto"`
}

// Totals summarizes the ranked metrics.
type Totals struct {
	Products      int     `json:"products"`
	TotalL4W      float64 `json:"totalL4W"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// DimensionOptions lists the distinct values available to each equality filter.
type DimensionOptions struct {
	Categories    []string `json:"categories"`
	Salesmen      []string `json:"salesmen"`
	Cities        []string `json:"cities"`
	CustomerTypes []string `json:"customerTypes"`
}

// ProductDetail is the full weekly series of one product, shaped for a line chart.
type ProductDetail struct {
	Product    string    `json:"product"`
	AvgRevenue float64   `json:"avgRevenue"`
	Labels     []string  `json:"labels"`
	Revenue    []float64 `json:"revenue"`
	Quantity   []float64 `json:"quantity"`
}
