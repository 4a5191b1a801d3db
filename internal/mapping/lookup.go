package mapping

import "nexusprep/pkg/contracts/domain"

// ColumnFor returns the strongest mapped column for field. Duplicates are left for the
// operator to resolve; until then the highest-confidence column is used.
func ColumnFor(mappings []domain.ColumnMapping, field domain.FieldID) (domain.ColumnMapping, bool) {
	var best domain.ColumnMapping
	found := false
	for _, m := range mappings {
		if m.SuggestedField != field || !m.IsMapped() {
			continue
		}
		if !found || m.Confidence > best.Confidence {
			best, found = m, true
		}
	}
	return best, found
}

// DetectedFields returns the distinct mapped fields in column order.
func DetectedFields(mappings []domain.ColumnMapping) []domain.FieldID {
	seen := map[domain.FieldID]bool{}
	var out []domain.FieldID
	for _, m := range mappings {
		if m.IsMapped() && !seen[m.SuggestedField] {
			seen[m.SuggestedField] = true
			out = append(out, m.SuggestedField)
		}
	}
	return out
}
