// Package normalization resolves raw state values to canonical two-letter codes.
//
// Resolution is tiered and the first tier that hits wins. Values are resolved once per
// distinct spelling, so the cost of the approximate tier tracks the number of distinct
// spellings rather than the number of rows.
package normalization

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"nexusprep/internal/fuzzy"
	"nexusprep/internal/jurisdiction"
	"nexusprep/pkg/contracts/domain"
)

// Tier confidences.
const (
	CodeConfidence      = 100
	NameConfidence      = 100
	VariationConfidence = 95
	SuffixConfidence    = 90
	FuzzyScale          = 85
)

// Resolution methods recorded on each Normalization.
const (
	MethodCode       = "code"
	MethodName       = "name"
	MethodVariation  = "variation"
	MethodSuffix     = "suffix"
	MethodFuzzy      = "fuzzy"
	MethodUnresolved = "unresolved"
)

const (
	successRateTarget = 0.8
	successRateError  = 0.5
)

var suffixRe = regexp.MustCompile(`,\s*([A-Za-z]{2})\.?\s*$`)

// Resolution is the outcome for one raw value.
type Resolution struct {
	Code       string
	Confidence int
	Method     string
}

// Resolved reports whether a code was found.
func (r Resolution) Resolved() bool { return r.Code != "" }

// Options tune the normalizer.
type Options struct {
	Matcher         *fuzzy.Matcher
	FlagThreshold   int
	MaxAffectedRows int
}

// Normalizer resolves state values against the jurisdiction table.
type Normalizer struct {
	matcher         *fuzzy.Matcher
	flagThreshold   int
	maxAffectedRows int
	names           []string
}

// NewNormalizer builds a normalizer. Zero options fall back to defaults.
func NewNormalizer(opts Options) *Normalizer {
	if opts.Matcher == nil {
		opts.Matcher = fuzzy.NewMatcher(fuzzy.DefaultThreshold)
	}
	if opts.FlagThreshold <= 0 {
		opts.FlagThreshold = 80
	}
	if opts.MaxAffectedRows <= 0 {
		opts.MaxAffectedRows = 500
	}
	return &Normalizer{
		matcher:         opts.Matcher,
		flagThreshold:   opts.FlagThreshold,
		maxAffectedRows: opts.MaxAffectedRows,
		names:           jurisdiction.Names(),
	}
}

// Resolve maps one raw value to a code.
func (n *Normalizer) Resolve(raw string) Resolution {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Resolution{Method: MethodUnresolved}
	}
	if j, ok := jurisdiction.ByCode(v); ok {
		return Resolution{Code: j.Code, Confidence: CodeConfidence, Method: MethodCode}
	}
	if code, ok := jurisdiction.CodeForName(v); ok {
		return Resolution{Code: code, Confidence: NameConfidence, Method: MethodName}
	}
	if code, ok := jurisdiction.CodeForVariation(v); ok {
		return Resolution{Code: code, Confidence: VariationConfidence, Method: MethodVariation}
	}
	if m := suffixRe.FindStringSubmatch(v); m != nil {
		if j, ok := jurisdiction.ByCode(m[1]); ok {
			return Resolution{Code: j.Code, Confidence: SuffixConfidence, Method: MethodSuffix}
		}
	}
	if match, ok := n.matcher.Best(jurisdiction.Key(v), n.names); ok {
		return Resolution{
			Code:       jurisdiction.All[match.Index].Code,
			Confidence: fuzzy.Confidence(match.Distance, FuzzyScale),
			Method:     MethodFuzzy,
		}
	}
	return Resolution{Method: MethodUnresolved}
}

// Report is the normalization outcome for one state column.
type Report struct {
	Normalizations []domain.Normalization
	NonEmpty       int
	Resolved       int
	Failed         int
	Issues         []domain.Issue
}

// SuccessRate is resolved rows over non-empty rows; 1 when the column is all empty.
func (r Report) SuccessRate() float64 {
	if r.NonEmpty == 0 {
		return 1
	}
	return float64(r.Resolved) / float64(r.NonEmpty)
}

// Lookup returns the canonical code for every resolved raw value.
func (r Report) Lookup() map[string]string {
	out := make(map[string]string, len(r.Normalizations))
	for _, nz := range r.Normalizations {
		if nz.Resolved() {
			out[nz.Original] = nz.Code()
		}
	}
	return out
}

// Normalize resolves every distinct non-empty value of column col.
func (n *Normalizer) Normalize(ds *domain.Dataset, col int) Report {
	type bucket struct {
		count int
		rows  []int
	}
	buckets := map[string]*bucket{}
	var order []string
	report := Report{}

	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		v := ds.Cell(r, col)
		if v == "" {
			continue
		}
		report.NonEmpty++
		b, ok := buckets[v]
		if !ok {
			b = &bucket{}
			buckets[v] = b
			order = append(order, v)
		}
		b.count++
		b.rows = append(b.rows, r+1)
	}

	var failedRows []int
	var failedValues []string
	for _, v := range order {
		b := buckets[v]
		res := n.Resolve(v)
		nz := domain.Normalization{
			File:       ds.Name,
			Original:   v,
			Confidence: res.Confidence,
			Count:      b.count,
			Flagged:    res.Confidence < n.flagThreshold,
			Method:     res.Method,
		}
		if res.Resolved() {
			code := res.Code
			nz.Normalized = &code
			report.Resolved += b.count
		} else {
			report.Failed += b.count
			failedRows = append(failedRows, b.rows...)
			failedValues = append(failedValues, v)
		}
		report.Normalizations = append(report.Normalizations, nz)
	}

	rate := report.SuccessRate()
	if rate < successRateTarget && report.Failed > 0 {
		sort.Ints(failedRows)
		report.Issues = append(report.Issues, n.failureIssue(ds.Name, rate, failedValues, failedRows))
	}
	return report
}

func (n *Normalizer) failureIssue(file string, rate float64, values []string, rows []int) domain.Issue {
	sev := domain.SeverityWarning
	if rate < successRateError {
		sev = domain.SeverityError
	}
	shown := values
	if len(shown) > 5 {
		shown = shown[:5]
	}
	affected := rows
	if len(affected) > n.maxAffectedRows {
		affected = affected[:n.maxAffectedRows]
	}
	return domain.Issue{
		ID:       uuid.NewString(),
		File:     file,
		Type:     domain.IssueStateNormalization,
		Severity: sev,
		Title:    fmt.Sprintf("Only %.0f%% of state values could be normalized", rate*100),
		Description: fmt.Sprintf("%d distinct values could not be matched to a state, e.g. %s.",
			len(values), strings.Join(quoteAll(shown), ", ")),
		AffectedRows:  affected,
		AffectedCount: len(rows),
		Suggestions: []domain.Suggestion{
			{Label: "Proceed with partial normalization", Value: "proceed"},
			{Label: "Review failed normalizations", Value: "review"},
		},
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
