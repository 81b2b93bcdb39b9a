package weekly

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ticketclose/internal/bookkeeping"
	"ticketclose/internal/config"
)

// LineDescriptor describes one ledger line to be booked for an event.
type LineDescriptor struct {
	GLAccount uuid.UUID
	// CostCenter is uuid.Nil when the line is not attributed to a cost
	// center.
	CostCenter uuid.UUID
	// VATCode is empty for lines booked without VAT, such as fee lines.
	VATCode     string
	Description string
	Amount      decimal.Decimal
}

// UnmatchedProductError is returned in split mode when no cost-center
// pattern matches a product name.
type UnmatchedProductError struct {
	Event   string
	Product string
}

func (e *UnmatchedProductError) Error() string {
	return fmt.Sprintf("weekly: event %s: no cost-center pattern matches product %q", e.Event, e.Product)
}

// UnmatchedVATRateError is returned in split mode when no configured VAT code
// carries a product's tax rate.
type UnmatchedVATRateError struct {
	Event   string
	Product string
	Rate    decimal.Decimal
}

func (e *UnmatchedVATRateError) Error() string {
	return fmt.Sprintf("weekly: event %s: no VAT code configured for rate %s%% of product %q", e.Event, e.Rate, e.Product)
}

// costCenterRule is a compiled per-event classification rule.
type costCenterRule struct {
	pattern *regexp.Regexp
	code    string
}

// LedgerLines classifies an event summary into ledger line descriptors,
// resolving all referenced GL-account and cost-center codes to bookkeeping
// record IDs.
//
// In combined mode this is one net-sales line plus one fee line. In split
// mode it is one line per non-ignored product with a nonzero total, plus the
// fee line. Patterns match in configuration order; the first match wins.
func LedgerLines(ctx context.Context, client *bookkeeping.Client, books config.Bookkeeping, eventID string, eventCfg config.EventConfig, summary EventSummary) ([]LineDescriptor, error) {
	rules := make([]costCenterRule, 0, len(eventCfg.CostCenters))
	for _, rule := range eventCfg.CostCenters {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("weekly: event %s: invalid cost-center pattern %q: %w", eventID, rule.Pattern, err)
		}
		rules = append(rules, costCenterRule{pattern: re, code: rule.CostCenter})
	}

	ignores := make([]*regexp.Regexp, 0, len(eventCfg.IgnoreProducts))
	for _, pattern := range eventCfg.IgnoreProducts {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("weekly: event %s: invalid ignore pattern %q: %w", eventID, pattern, err)
		}
		ignores = append(ignores, re)
	}

	if !eventCfg.SplitPerProduct && eventCfg.VATCode == "" {
		return nil, fmt.Errorf("weekly: event %s: no VAT code configured for combined booking", eventID)
	}

	ids, err := resolveCodes(ctx, client, books, eventCfg, rules)
	if err != nil {
		return nil, fmt.Errorf("weekly: event %s: %w", eventID, err)
	}

	var lines []LineDescriptor
	if eventCfg.SplitPerProduct {
		lines, err = splitLines(eventID, summary, books, rules, ignores, ids)
		if err != nil {
			return nil, err
		}
	} else {
		lines = []LineDescriptor{{
			GLAccount:   ids.eventGL,
			VATCode:     eventCfg.VATCode,
			Description: summary.EventName,
			Amount:      summary.Totals.Value,
		}}
	}

	// Transaction fees are booked on the fixed bookkeeping account, without
	// VAT.
	lines = append(lines, LineDescriptor{
		GLAccount:   ids.feeGL,
		CostCenter:  ids.feeCostCenter,
		Description: fmt.Sprintf("Transaction fees %s", summary.EventName),
		Amount:      summary.Totals.Fees,
	})
	return lines, nil
}

// resolvedIDs holds the bookkeeping record IDs a classification needs.
type resolvedIDs struct {
	eventGL       uuid.UUID
	feeGL         uuid.UUID
	feeCostCenter uuid.UUID
	costCenters   map[string]uuid.UUID // by code
}

// resolveCodes looks up all referenced codes concurrently.
func resolveCodes(ctx context.Context, client *bookkeeping.Client, books config.Bookkeeping, eventCfg config.EventConfig, rules []costCenterRule) (*resolvedIDs, error) {
	ids := &resolvedIDs{costCenters: make(map[string]uuid.UUID)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ids.eventGL, err = client.GLAccountByCode(ctx, eventCfg.GLAccount)
		if err != nil {
			return fmt.Errorf("resolving GL account %s: %w", eventCfg.GLAccount, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ids.feeGL, err = client.GLAccountByCode(ctx, books.GLAccounts.Bookkeeping)
		if err != nil {
			return fmt.Errorf("resolving GL account %s: %w", books.GLAccounts.Bookkeeping, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ids.feeCostCenter, err = client.CostCenterByCode(ctx, books.CostCenters.TransactionFees)
		if err != nil {
			return fmt.Errorf("resolving cost center %s: %w", books.CostCenters.TransactionFees, err)
		}
		return nil
	})

	seen := make(map[string]bool)
	for _, rule := range rules {
		if seen[rule.code] {
			continue
		}
		seen[rule.code] = true
		g.Go(func() error {
			id, err := client.CostCenterByCode(ctx, rule.code)
			if err != nil {
				return fmt.Errorf("resolving cost center %s: %w", rule.code, err)
			}
			mu.Lock()
			ids.costCenters[rule.code] = id
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// splitLines emits one line per surviving product.
func splitLines(eventID string, summary EventSummary, books config.Bookkeeping, rules []costCenterRule, ignores []*regexp.Regexp, ids *resolvedIDs) ([]LineDescriptor, error) {
	rates := make(map[string]decimal.Decimal, len(summary.SaleItems))
	for _, item := range summary.SaleItems {
		rates[item.Name] = item.TaxRate
	}

	// Deterministic output order.
	products := make([]string, 0, len(summary.ItemTotals))
	for name := range summary.ItemTotals {
		products = append(products, name)
	}
	sort.Strings(products)

	var lines []LineDescriptor
	for _, product := range products {
		total := summary.ItemTotals[product]
		if total.IsZero() {
			continue
		}
		if matchesAny(ignores, product) {
			continue
		}

		rule, ok := firstMatch(rules, product)
		if !ok {
			return nil, &UnmatchedProductError{Event: eventID, Product: product}
		}

		vatCode, ok := vatCodeForRate(books.VATCodes, rates[product])
		if !ok {
			return nil, &UnmatchedVATRateError{Event: eventID, Product: product, Rate: rates[product]}
		}

		lines = append(lines, LineDescriptor{
			GLAccount:   ids.eventGL,
			CostCenter:  ids.costCenters[rule.code],
			VATCode:     vatCode,
			Description: product,
			Amount:      total,
		})
	}
	return lines, nil
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func firstMatch(rules []costCenterRule, product string) (costCenterRule, bool) {
	for _, rule := range rules {
		if rule.pattern.MatchString(product) {
			return rule, true
		}
	}
	return costCenterRule{}, false
}

func vatCodeForRate(codes []config.VATCode, rate decimal.Decimal) (string, bool) {
	for _, vat := range codes {
		if vat.Percentage.Equal(rate) {
			return vat.Code, true
		}
	}
	return "", false
}
