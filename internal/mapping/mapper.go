// Package mapping infers what each source column means. Every column is scored against
// the field taxonomy with a tiered header-text score (exact, partial, fuzzy) and then
// adjusted by the shape of a bounded sample of its values.
package mapping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"nexusprep/internal/fuzzy"
	"nexusprep/internal/jurisdiction"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// Header-text tier confidences.
const (
	ExactConfidence   = 100
	PartialConfidence = 85
	FuzzyScale        = 70

	ShapeBoost          = 15
	ShapePenalty        = 20
	StateDataConfidence = 90

	shapeBoostRatio   = 0.7
	shapePenaltyRatio = 0.3
	penaltyCeiling    = 90
	stateTokenRatio   = 0.5
	shortPatternLen   = 3
	displaySamples    = 5
	maxAlternatives   = 3
)

// Options tune the mapper.
type Options struct {
	SampleSize       int
	MappingThreshold int
	Matcher          *fuzzy.Matcher
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		SampleSize:       100,
		MappingThreshold: 50,
		Matcher:          fuzzy.NewMatcher(fuzzy.DefaultThreshold),
	}
}

// Learned is a previously confirmed firm mapping, keyed by normalized header.
type Learned struct {
	Field      domain.FieldID
	Confidence int
}

// Mapper scores source columns against the taxonomy.
type Mapper struct {
	opts     Options
	fields   []taxonomy.Field
	patterns map[domain.FieldID][]string
}

// NewMapper creates a mapper over the static taxonomy.
func NewMapper(opts Options) *Mapper {
	def := DefaultOptions()
	if opts.SampleSize <= 0 {
		opts.SampleSize = def.SampleSize
	}
	if opts.MappingThreshold <= 0 {
		opts.MappingThreshold = def.MappingThreshold
	}
	if opts.Matcher == nil {
		opts.Matcher = def.Matcher
	}

	patterns := make(map[domain.FieldID][]string, len(taxonomy.Fields))
	for _, f := range taxonomy.Fields {
		normalized := make([]string, 0, len(f.Patterns))
		for _, p := range f.Patterns {
			normalized = append(normalized, NormalizeHeader(p))
		}
		patterns[f.ID] = normalized
	}
	return &Mapper{opts: opts, fields: taxonomy.Fields, patterns: patterns}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader lower-cases a header and collapses non-alphanumeric runs to one space.
func NormalizeHeader(h string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(h), " "))
}

// MapColumns maps every column of ds and returns the mappings plus the duplicate and
// low-confidence issues they raise.
func (m *Mapper) MapColumns(ds *domain.Dataset, learned map[string]Learned) ([]domain.ColumnMapping, []domain.Issue) {
	mappings := make([]domain.ColumnMapping, 0, len(ds.Headers))
	for col := range ds.Headers {
		mappings = append(mappings, m.MapColumn(ds, col, learned))
	}
	issues := DuplicateIssues(ds.Name, mappings)
	issues = append(issues, m.lowConfidenceIssues(ds.Name, mappings)...)
	return mappings, issues
}

// MapColumn scores one column.
func (m *Mapper) MapColumn(ds *domain.Dataset, col int, learned map[string]Learned) domain.ColumnMapping {
	header := ""
	if col < len(ds.Headers) {
		header = ds.Headers[col]
	}
	name := header
	if name == "" {
		name = fmt.Sprintf("Column %d", col+1)
	}

	samples := Samples(ds, col, m.opts.SampleSize)
	normalized := NormalizeHeader(header)

	scores := make([]domain.FieldScore, 0, len(m.fields))
	for _, f := range m.fields {
		scores = append(scores, m.scoreField(normalized, f, samples))
	}

	var learnedScore *domain.FieldScore
	if l, ok := learned[normalized]; ok && normalized != "" {
		for i := range scores {
			if scores[i].Field == l.Field {
				scores[i] = domain.FieldScore{Field: l.Field, Confidence: l.Confidence, Source: domain.SourceLearned}
				learnedScore = &scores[i]
			}
		}
	}

	ranked := rank(scores)
	mapping := domain.ColumnMapping{
		File:           ds.Name,
		ColumnIndex:    col,
		SourceColumn:   name,
		SuggestedField: domain.FieldIgnore,
		Source:         domain.SourceNone,
		Alternatives:   []domain.FieldScore{},
		DataType:       InferDataType(samples),
		SampleValues:   head(samples, displaySamples),
	}

	// A confirmed firm mapping outranks generic scoring.
	winner := ranked[0]
	if learnedScore != nil {
		winner = *learnedScore
	}
	if winner.Confidence > 0 {
		mapping.Confidence = winner.Confidence
		mapping.Source = winner.Source
		if winner.Confidence >= m.opts.MappingThreshold {
			mapping.SuggestedField = winner.Field
		}
	}

	for _, s := range ranked {
		if s.Confidence <= 0 || len(mapping.Alternatives) == maxAlternatives {
			continue
		}
		mapping.Alternatives = append(mapping.Alternatives, s)
	}
	return mapping
}

// scoreField computes the header tier score and applies the sample-shape adjustments.
func (m *Mapper) scoreField(header string, f taxonomy.Field, samples []string) domain.FieldScore {
	conf, src := m.headerScore(header, m.patterns[f.ID])

	if f.Shape != nil && len(samples) > 0 {
		ratio := matchRatio(samples, f.Shape)
		switch {
		case ratio >= shapeBoostRatio:
			conf = min(100, conf+ShapeBoost)
			if src == domain.SourceNone {
				src = domain.SourceDataAnalysis
			}
		case ratio < shapePenaltyRatio && conf < penaltyCeiling:
			conf = max(0, conf-ShapePenalty)
		}
	}

	// Values that read as states decide the source even when the header already matched.
	if f.ID == domain.FieldState && len(samples) > 0 &&
		matchRatio(samples, jurisdiction.IsStateToken) >= stateTokenRatio {
		conf = max(conf, StateDataConfidence)
		src = domain.SourceDataAnalysis
	}

	if conf == 0 {
		src = domain.SourceNone
	}
	return domain.FieldScore{Field: f.ID, Confidence: conf, Source: src}
}

// headerScore applies the text tiers in order; the first tier that matches wins.
func (m *Mapper) headerScore(header string, patterns []string) (int, domain.MappingSource) {
	if header == "" {
		return 0, domain.SourceNone
	}
	for _, p := range patterns {
		if header == p {
			return ExactConfidence, domain.SourceExact
		}
	}
	for _, p := range patterns {
		if containsPattern(header, p) {
			return PartialConfidence, domain.SourcePartial
		}
	}
	if match, ok := m.opts.Matcher.Best(header, patterns); ok {
		return fuzzy.Confidence(match.Distance, FuzzyScale), domain.SourceFuzzy
	}
	return 0, domain.SourceNone
}

// containsPattern reports whether header contains pattern. Short patterns such as
// "st" or "amt" must stand as whole words; longer ones match anywhere, so run-together
// headers like "customershiptostate" still hit "state".
func containsPattern(header, pattern string) bool {
	if pattern == "" || header == "" {
		return false
	}
	if len(pattern) <= shortPatternLen {
		return strings.Contains(" "+header+" ", " "+pattern+" ")
	}
	return strings.Contains(header, pattern)
}

func matchRatio(samples []string, match func(string) bool) float64 {
	if len(samples) == 0 {
		return 0
	}
	hits := 0
	for _, s := range samples {
		if match(s) {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}

// rank orders scores by confidence, breaking ties by taxonomy priority.
func rank(scores []domain.FieldScore) []domain.FieldScore {
	ranked := append([]domain.FieldScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return taxonomy.Priority(ranked[i].Field) > taxonomy.Priority(ranked[j].Field)
	})
	return ranked
}

// Samples returns up to limit non-empty values of col starting at the data-start row.
func Samples(ds *domain.Dataset, col, limit int) []string {
	var out []string
	for r := ds.DataStartRow; r < len(ds.Rows) && len(out) < limit; r++ {
		if v := ds.Cell(r, col); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// InferDataType takes a majority vote over samples. Ties resolve date, then number,
// then null, then string.
func InferDataType(samples []string) domain.DataType {
	if len(samples) == 0 {
		return domain.DataTypeUnknown
	}
	votes := map[domain.DataType]int{}
	for _, s := range samples {
		switch {
		case taxonomy.IsDate(s):
			votes[domain.DataTypeDate]++
		case taxonomy.IsAmount(s):
			votes[domain.DataTypeNumber]++
		case taxonomy.IsNullToken(s):
			votes[domain.DataTypeNull]++
		default:
			votes[domain.DataTypeString]++
		}
	}
	best, bestVotes := domain.DataTypeString, -1
	for _, t := range []domain.DataType{domain.DataTypeDate, domain.DataTypeNumber, domain.DataTypeNull, domain.DataTypeString} {
		if votes[t] > bestVotes {
			best, bestVotes = t, votes[t]
		}
	}
	return best
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return append([]string(nil), s...)
	}
	return append([]string(nil), s[:n]...)
}
