package weekly

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ticketclose/internal/ticketing"
)

// Totals holds the aggregated financial totals of one event.
type Totals struct {
	// Value is the total order value net of transaction fees.
	Value decimal.Decimal
	// Fees is the total of all transaction fees.
	Fees decimal.Decimal
}

// UnknownProductError is returned when an order position references a product
// id with no matching sale item in the event's catalog.
type UnknownProductError struct {
	ProductID int
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("weekly: no sale item found for product %d appearing in order data", e.ProductID)
}

// FilterPeriod keeps the orders whose timestamp lies within [start, end],
// inclusive on both ends. Input order is preserved.
func FilterPeriod(orders []ticketing.Order, start, end time.Time) []ticketing.Order {
	var kept []ticketing.Order
	for _, order := range orders {
		if order.Datetime.Before(start) || order.Datetime.After(end) {
			continue
		}
		kept = append(kept, order)
	}
	return kept
}

// CalcTotals computes the net value and fee totals over the given orders.
// Sums accumulate in input order.
func CalcTotals(orders []ticketing.Order) Totals {
	var totals Totals
	for _, order := range orders {
		var fees decimal.Decimal
		for _, fee := range order.Fees {
			fees = fees.Add(fee.Value)
		}
		totals.Value = totals.Value.Add(order.Total.Sub(fees))
		totals.Fees = totals.Fees.Add(fees)
	}
	return totals
}

// TotalsPerSaleItem flattens all order positions and sums the prices per
// product id.
func TotalsPerSaleItem(orders []ticketing.Order) map[int]decimal.Decimal {
	totals := make(map[int]decimal.Decimal)
	for _, order := range orders {
		for _, pos := range order.Positions {
			totals[pos.Item] = totals[pos.Item].Add(pos.Price)
		}
	}
	return totals
}

// ResolveItemTotals rekeys per-product-id totals by the product display names
// from the event's sale-item catalog. Every product id must resolve.
func ResolveItemTotals(totals map[int]decimal.Decimal, items []ticketing.SaleItem) (map[string]decimal.Decimal, error) {
	names := make(map[int]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	resolved := make(map[string]decimal.Decimal, len(totals))
	for id, total := range totals {
		name, ok := names[id]
		if !ok {
			return nil, &UnknownProductError{ProductID: id}
		}
		resolved[name] = total
	}
	return resolved, nil
}
