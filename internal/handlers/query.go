package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"salesboard/internal/engine"
	"salesboard/internal/errors"
	"salesboard/internal/models"
	"salesboard/internal/ui/templates"
)

// MaxTopN bounds the number of products rollups are built for.
const MaxTopN = 100

var validate = validator.New()

type queryRules struct {
	Filter models.FilterConfig
	Sort   models.SortConfig
	TopN   int `validate:"min=0,max=100"`
}

// parseQuery reads filter, sort and top-N from URL query parameters.
func parseQuery(values url.Values) (engine.Query, error) {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }

	q := engine.Query{
		Filter: models.FilterConfig{
			Category:     get("category"),
			Salesman:     get("salesman"),
			City:         get("city"),
			CustomerType: get("customerType"),
			Product:      get("product"),
			FromDate:     get("fromDate"),
			ToDate:       get("toDate"),
		},
		Sort: models.SortConfig{
			Key:       models.SortKey(get("sortKey")),
			Direction: models.SortDirection(strings.ToLower(get("sortDir"))),
		},
	}

	if top := get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil {
			return engine.Query{}, errors.BadRequestWrap(err, "top must be an integer")
		}
		q.TopN = n
	}

	return q, validateQuery(q)
}

// signalsQuery converts Datastar signals into a pipeline query.
func signalsQuery(s templates.Signals) (engine.Query, error) {
	f := s.Filters
	q := engine.Query{
		Filter: models.FilterConfig{
			Category:     strings.TrimSpace(f.Category),
			Salesman:     strings.TrimSpace(f.Salesman),
			City:         strings.TrimSpace(f.City),
			CustomerType: strings.TrimSpace(f.CustomerType),
			Product:      strings.TrimSpace(f.Product),
			FromDate:     strings.TrimSpace(f.FromDate),
			ToDate:       strings.TrimSpace(f.ToDate),
		},
		Sort: s.Sort,
		TopN: s.Top,
	}
	return q, validateQuery(q)
}

func validateQuery(q engine.Query) error {
	if err := validate.Struct(queryRules{Filter: q.Filter, Sort: q.Sort, TopN: q.TopN}); err != nil {
		return errors.FromValidation(err)
	}
	return nil
}
