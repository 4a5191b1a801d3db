// Package taxonomy is the static registry of semantic fields the pipeline recognizes,
// the header patterns and value shapes used to recognize them, and the catalog of
// fields each analysis module requires.
//
// Everything here is immutable data. The column mapper and the readiness gate are
// pure functions over these tables.
package taxonomy

import (
	"regexp"
	"strings"

	"nexusprep/pkg/contracts/domain"
)

// ShapeMatcher reports whether a raw cell value looks like a field's values.
type ShapeMatcher func(value string) bool

// Field describes one semantic field.
type Field struct {
	ID          domain.FieldID
	Label       string
	Patterns    []string
	Shape       ShapeMatcher
	Priority    int
	Description string
}

var (
	amountRe = regexp.MustCompile(`^\(?[-+]?\s?\$?\s?[-+]?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?\)?$|^\(?[-+]?\s?\$?\s?\.\d+\)?$`)

	dateRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}([ T].*)?$`),
		regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`),
		regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
		regexp.MustCompile(`^\d{1,2}[- ][A-Za-z]{3,9}[- ]\d{2,4}$`),
		regexp.MustCompile(`^[A-Za-z]{3,9}\.? \d{1,2},? \d{4}$`),
	}

	nullTokens = map[string]bool{
		"null": true, "n/a": true, "na": true, "none": true, "nil": true, "-": true, "--": true, "#n/a": true,
	}
)

// IsAmount matches an optionally signed, optionally $-prefixed, comma-grouped decimal.
// Accounting-style parentheses are accepted for negatives.
func IsAmount(v string) bool {
	return amountRe.MatchString(strings.TrimSpace(v))
}

// IsDate matches the common date layouts seen in accounting exports.
func IsDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, re := range dateRes {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// IsNullToken reports whether v is a textual placeholder for a missing value.
func IsNullToken(v string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(v))]
}

// Fields is the field taxonomy, highest priority first.
var Fields = []Field{
	{
		ID:       domain.FieldState,
		Label:    "State",
		Priority: 10,
		Patterns: []string{
			"state", "st", "state code", "state province", "province", "jurisdiction",
			"ship to state", "ship state", "shipping state", "billing state", "bill to state",
			"destination state", "customer state", "tax state", "work state", "state abbreviation",
		},
		Description: "US state or DC where the activity is sourced",
	},
	{
		ID:       domain.FieldRevenue,
		Label:    "Revenue",
		Priority: 9,
		Shape:    IsAmount,
		Patterns: []string{
			"revenue", "sales", "amount", "total", "gross sales", "net sales", "total sales",
			"sales amount", "sale amount", "invoice amount", "invoice total", "gross receipts",
			"receipts", "net amount", "total revenue", "gross revenue", "extended amount", "amt",
		},
		Description: "Monetary amount of the sale or receipt",
	},
	{
		ID:       domain.FieldDate,
		Label:    "Date",
		Priority: 8,
		Shape:    IsDate,
		Patterns: []string{
			"date", "invoice date", "transaction date", "txn date", "order date", "ship date",
			"posting date", "sale date", "period", "document date", "pay date",
		},
		Description: "Transaction or period date",
	},
	{
		ID:       domain.FieldCustomer,
		Label:    "Customer",
		Priority: 7,
		Patterns: []string{
			"customer", "customer name", "client", "client name", "buyer", "sold to", "bill to",
			"account name", "customer id",
		},
		Description: "Customer or counterparty",
	},
	{
		ID:       domain.FieldWages,
		Label:    "Wages",
		Priority: 6,
		Shape:    IsAmount,
		Patterns: []string{
			"wages", "salary", "salaries", "payroll", "compensation", "gross pay", "gross wages",
			"pay", "earnings", "payroll amount", "taxable wages",
		},
		Description: "Wages paid, for payroll apportionment",
	},
	{
		ID:       domain.FieldEmployee,
		Label:    "Employee",
		Priority: 5,
		Patterns: []string{
			"employee", "employee name", "employee id", "emp id", "emp", "worker", "staff",
			"team member",
		},
		Description: "Employee identifier",
	},
	{
		ID:       domain.FieldProduct,
		Label:    "Product",
		Priority: 4,
		Patterns: []string{
			"product", "product name", "item", "item name", "sku", "item description",
			"product code", "service", "description",
		},
		Description: "Product or service sold",
	},
	{
		ID:       domain.FieldActivityType,
		Label:    "Activity Type",
		Priority: 3,
		Patterns: []string{
			"activity type", "activity", "transaction type", "txn type", "sale type", "type",
			"category", "channel", "revenue type",
		},
		Description: "Kind of activity (tangible goods, services, SaaS, ...)",
	},
}

var fieldIndex = func() map[domain.FieldID]Field {
	m := make(map[domain.FieldID]Field, len(Fields))
	for _, f := range Fields {
		m[f.ID] = f
	}
	return m
}()

// Lookup returns the taxonomy entry for a field.
func Lookup(id domain.FieldID) (Field, bool) {
	f, ok := fieldIndex[id]
	return f, ok
}

// Priority returns a field's tie-break priority; unknown fields rank last.
func Priority(id domain.FieldID) int {
	return fieldIndex[id].Priority
}
