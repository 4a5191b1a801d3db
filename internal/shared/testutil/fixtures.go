package testutil

import "nexusprep/pkg/contracts/domain"

// Rows converts a header and string records into untyped dataset rows.
func Rows(header []string, records ...[]string) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, toAny(header))
	for _, rec := range records {
		rows = append(rows, toAny(rec))
	}
	return rows
}

// Dataset builds a dataset whose first row is the header.
func Dataset(name string, header []string, records ...[]string) *domain.Dataset {
	return domain.NewDataset(name, Rows(header, records...))
}

// SalesExport is a small, clean sales export that every analysis module can use.
func SalesExport(name string) *domain.Dataset {
	return Dataset(name,
		[]string{"Invoice Date", "Customer Name", "Ship-to State", "Amount"},
		[]string{"2024-01-15", "Acme Corp", "CA", "1,200.00"},
		[]string{"2024-01-20", "Globex", "Texas", "$850.50"},
		[]string{"2024-02-03", "Initech", "ny", "430"},
		[]string{"2024-02-11", "Umbrella", "California", "99.50"},
	)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
