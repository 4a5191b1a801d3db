package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats an amount with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats a row number
func formatInt(i int) string {
	return strconv.Itoa(i)
}
