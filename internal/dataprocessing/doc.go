// Package dataprocessing turns raw exports into datasets for the validation pipeline.
//
// Supported sources:
//
//   - CSV (comma, semicolon or tab separated, optional UTF-8 BOM)
//   - Excel workbooks (.xlsx, .xlsm) read with excelize
//   - Google Sheets ranges read through the Sheets v4 API
//
// Accounting exports often carry banner rows (report title, company, period) above the
// real header. Every reader runs DetectHeader over the first rows and records the
// header and data-start positions on the dataset.
//
// # Usage
//
//	ds, err := dataprocessing.ParseFile("q1_sales.xlsx", dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
package dataprocessing
