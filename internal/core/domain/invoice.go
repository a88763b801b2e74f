package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID       string
	OrderID  string
	IssuedAt time.Time
	Total    decimal.Decimal
	PDFURL   string
}

type InvoiceWithOrder struct {
	Invoice
	Order OrderWithItems
}

type InvoiceStatistics struct {
	TotalInvoices       int
	TotalRevenue        decimal.Decimal
	AverageInvoiceValue decimal.Decimal
}

// SummarizeInvoices scans every invoice; there are no materialized counters.
func SummarizeInvoices(invoices []Invoice) InvoiceStatistics {
	stats := InvoiceStatistics{
		TotalInvoices:       len(invoices),
		TotalRevenue:        decimal.Zero,
		AverageInvoiceValue: decimal.Zero,
	}
	for _, inv := range invoices {
		stats.TotalRevenue = stats.TotalRevenue.Add(inv.Total)
	}
	if len(invoices) > 0 {
		stats.AverageInvoiceValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(len(invoices))))
	}
	return stats
}
