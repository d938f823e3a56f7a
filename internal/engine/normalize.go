// Package engine turns raw weekly sales rows into per-product metrics and the
// derived views the dashboard renders. Every function here is pure: no I/O,
// no logging, no shared state, so results can be memoized by their inputs.
package engine

import (
	"math"
	"slices"
	"strings"
	"time"

	"salesboard/internal/models"
)

// Canonical field names. Each alias list starts with the canonical name so a
// record rebuilt from CanonicalRecord.Fields normalizes to itself.
const (
	FieldProduct      = "product"
	FieldCategory     = "category"
	FieldCustomerID   = "customerId"
	FieldCustomerName = "customerName"
	FieldCustomerType = "customerType"
	FieldSalesman     = "salesman"
	FieldVillage      = "village"
	FieldDistrict     = "district"
	FieldCity         = "city"
	FieldWeekNumber   = "weekNumber"
	FieldYear         = "year"
	FieldWeekStart    = "weekStart"
	FieldRevenue      = "revenue"
	FieldPacks        = "packs"
	FieldCartons      = "cartons"
	FieldBales        = "bales"
	FieldBoxes        = "boxes"
)

// Aliases maps each canonical field to its accepted spellings in resolution
// order. Earlier spellings win when a row carries several of them.
var Aliases = map[string][]string{
	FieldProduct:      {"product", "Produk", "Nama Produk"},
	FieldCategory:     {"category", "Kategori"},
	FieldCustomerID:   {"customerId", "No. Customer", "Customer ID", "Kode Customer"},
	FieldCustomerName: {"customerName", "Customer", "Nama Customer"},
	FieldCustomerType: {"customerType", "Tipe Customer", "TipeCustomer"},
	FieldSalesman:     {"salesman", "Sales"},
	FieldVillage:      {"village", "Desa"},
	FieldDistrict:     {"district", "Kecamatan"},
	FieldCity:         {"city", "Kota"},
	FieldWeekNumber:   {"weekNumber", "Minggu", "MingguNumber", "week"},
	FieldYear:         {"year", "Tahun"},
	FieldWeekStart:    {"weekStart", "Tanggal", "Date"},
	FieldRevenue:      {"revenue", "Omzet (Net)", "Omzet (Nett)", "Omzet", "OmzetNet"},
	FieldPacks:        {"packs", "Jual (Bungkus Nett)", "Jual (Bks N)", "Jual_Bks", "Bks"},
	FieldCartons:      {"cartons", "Jual (Slop Nett)", "Jual (Slop N)", "Jual_Slop"},
	FieldBales:        {"bales", "Jual (Bal Nett)", "Jual (Bal Net)", "Jual_Bal"},
	FieldBoxes:        {"boxes", "Jual (Dos N)", "Jual_Dos"},
}

// Normalizer maps raw rows to canonical records.
type Normalizer struct {
	aliases map[string][]string
	now     func() time.Time
}

type NormalizerOption func(*Normalizer)

// WithClock sets the clock used when a row's year cannot be determined.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// WithAliases adds extra spellings after the built-in ones for a field.
func WithAliases(field string, spellings ...string) NormalizerOption {
	return func(n *Normalizer) {
		n.aliases[field] = append(slices.Clone(n.aliases[field]), spellings...)
	}
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		aliases: make(map[string][]string, len(Aliases)),
		now:     time.Now,
	}
	for field, spellings := range Aliases {
		n.aliases[field] = spellings
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize builds a canonical record from raw. It reports false when the row
// has no usable product; every other defect degrades to a default value.
func (n *Normalizer) Normalize(raw models.RawRecord) (models.CanonicalRecord, bool) {
	if len(raw) == 0 {
		return models.CanonicalRecord{}, false
	}
	lookup := newFieldLookup(raw)

	product := strings.TrimSpace(toText(lookup.resolve(n.aliases[FieldProduct])))
	if product == "" {
		return models.CanonicalRecord{}, false
	}

	rec := models.CanonicalRecord{
		Product:      product,
		Category:     n.text(lookup, FieldCategory),
		CustomerID:   n.text(lookup, FieldCustomerID),
		CustomerName: n.text(lookup, FieldCustomerName),
		CustomerType: n.text(lookup, FieldCustomerType),
		Salesman:     n.text(lookup, FieldSalesman),
		Village:      n.text(lookup, FieldVillage),
		District:     n.text(lookup, FieldDistrict),
		City:         n.text(lookup, FieldCity),
		WeekStart:    n.text(lookup, FieldWeekStart),
		Revenue:      parseMoney(lookup.resolve(n.aliases[FieldRevenue])),
		Packs:        parseNumber(lookup.resolve(n.aliases[FieldPacks])),
		Cartons:      parseNumber(lookup.resolve(n.aliases[FieldCartons])),
		Bales:        parseNumber(lookup.resolve(n.aliases[FieldBales])),
		Boxes:        parseNumber(lookup.resolve(n.aliases[FieldBoxes])),
		Raw:          raw,
	}
	if week, ok := parseFloat(lookup.resolve(n.aliases[FieldWeekNumber])); ok && week >= 0 && week <= math.MaxInt32 {
		rec.WeekNumber = int(week)
	}
	rec.Year = n.year(lookup, rec.WeekStart)
	rec.Quantity = rec.Packs + rec.Cartons + rec.Bales + rec.Boxes
	return rec, true
}

// NormalizeAll normalizes rows in order and drops those without a product.
func (n *Normalizer) NormalizeAll(rows []models.RawRecord) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0, len(rows))
	for _, raw := range rows {
		if rec, ok := n.Normalize(raw); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (n *Normalizer) text(lookup fieldLookup, field string) string {
	return strings.TrimSpace(toText(lookup.resolve(n.aliases[field])))
}

// Explicit years outside this range are ignored.
const (
	minYear = 1
	maxYear = 9999
)

// year prefers an explicit year, then the year of weekStart, then the clock.
func (n *Normalizer) year(lookup fieldLookup, weekStart string) int {
	if y, ok := parseFloat(lookup.resolve(n.aliases[FieldYear])); ok && y >= minYear && y <= maxYear {
		return int(y)
	}
	if t, ok := ParseDate(weekStart); ok {
		return t.Year()
	}
	return n.now().Year()
}

// fieldLookup resolves spellings against one raw row: exact key first, then a
// trimmed, lower-cased key index built once per row.
type fieldLookup struct {
	raw    models.RawRecord
	folded map[string]any
}

func newFieldLookup(raw models.RawRecord) fieldLookup {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Sorted so that colliding keys resolve the same way on every run.
	slices.Sort(keys)

	folded := make(map[string]any, len(raw))
	for _, k := range keys {
		fk := foldKey(k)
		if prev, ok := folded[fk]; ok && !isEmpty(prev) {
			continue
		}
		folded[fk] = raw[k]
	}
	return fieldLookup{raw: raw, folded: folded}
}

func (l fieldLookup) resolve(spellings []string) any {
	for _, s := range spellings {
		if v, ok := l.raw[s]; ok && !isEmpty(v) {
			return v
		}
		if v, ok := l.folded[foldKey(s)]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func foldKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
