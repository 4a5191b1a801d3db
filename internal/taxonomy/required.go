package taxonomy

import "nexusprep/pkg/contracts/domain"

// Requirement lists the fields an analysis module needs.
type Requirement struct {
	Module   domain.Module
	Required []domain.FieldID
	Optional []domain.FieldID
}

// Catalog is the required-fields catalog, in reporting order.
var Catalog = []Requirement{
	{
		Module:   domain.ModuleSales,
		Required: []domain.FieldID{domain.FieldState, domain.FieldRevenue},
		Optional: []domain.FieldID{domain.FieldDate, domain.FieldCustomer, domain.FieldProduct, domain.FieldActivityType},
	},
	{
		Module:   domain.ModuleIncome,
		Required: []domain.FieldID{domain.FieldState, domain.FieldRevenue},
		Optional: []domain.FieldID{domain.FieldDate, domain.FieldActivityType},
	},
	{
		Module:   domain.ModulePayroll,
		Required: []domain.FieldID{domain.FieldState, domain.FieldWages},
		Optional: []domain.FieldID{domain.FieldEmployee, domain.FieldDate},
	},
	{
		Module:   domain.ModuleFranchise,
		Required: []domain.FieldID{domain.FieldState, domain.FieldRevenue},
		Optional: []domain.FieldID{domain.FieldDate},
	},
}
