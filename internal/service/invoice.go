package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InvoicePrefix returns the month prefix shared by every invoice of the
// sale date's month, e.g. "INV-CTI-01-2025-".
func InvoicePrefix(saleDate time.Time) string {
	return fmt.Sprintf("INV-CTI-%02d-%d-", int(saleDate.Month()), saleDate.Year())
}

// NextInvoiceNumber extracts the trailing integer of every ID sharing the
// prefix and returns max+1, defaulting to 1 when nothing matches. IDs with
// an unparsable tail are skipped.
func NextInvoiceNumber(ids []string, prefix string) int {
	max := 0
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// FormatInvoiceID builds the full human-readable invoice identifier.
func FormatInvoiceID(saleDate time.Time, n int) string {
	return InvoicePrefix(saleDate) + strconv.Itoa(n)
}
