// Package ledger provides typed, validated views over raw transaction
// records and the partition of assets into current and past (fully
// liquidated) cohorts.
package ledger

import (
	"sort"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// Ledger is an immutable view over a portfolio's transaction records.
type Ledger struct {
	transactions []domain.Transaction
}

// New wraps the given transactions in a Ledger. The slice is copied so later
// mutations by the caller cannot leak into the views.
func New(transactions []domain.Transaction) *Ledger {
	txs := make([]domain.Transaction, len(transactions))
	copy(txs, transactions)
	return &Ledger{transactions: txs}
}

// All returns every transaction in the ledger.
func (l *Ledger) All() []domain.Transaction {
	return l.filter(func(domain.Transaction) bool { return true })
}

// Buys returns buy operations only.
func (l *Ledger) Buys() []domain.Transaction {
	return l.filter(func(t domain.Transaction) bool { return t.Operation == domain.OperationBuy })
}

// Sells returns sell operations only.
func (l *Ledger) Sells() []domain.Transaction {
	return l.filter(func(t domain.Transaction) bool { return t.Operation == domain.OperationSell })
}

// BuySells returns buy and sell operations, excluding dividends.
func (l *Ledger) BuySells() []domain.Transaction {
	return l.filter(func(t domain.Transaction) bool { return t.Operation != domain.OperationDividend })
}

// Dividends returns dividend operations only.
func (l *Ledger) Dividends() []domain.Transaction {
	return l.filter(func(t domain.Transaction) bool { return t.Operation == domain.OperationDividend })
}

// Signed returns buy and sell operations with sell quantity and amount
// negated, so that net position math can treat every leg uniformly.
func (l *Ledger) Signed() []domain.Transaction {
	signed := l.BuySells()
	for i := range signed {
		if signed[i].Operation == domain.OperationSell {
			signed[i].Quantity = -signed[i].Quantity
			signed[i].Amount = -signed[i].Amount
		}
	}
	return signed
}

// Partition splits asset codes into liquidated (net quantity exactly zero)
// and active (net quantity positive). A net negative quantity means the
// ledger records more sold than bought for that asset, which is a
// data-integrity failure, not a computable state.
func (l *Ledger) Partition() (liquidated, active []string, err error) {
	net := make(map[string]int64)
	for _, t := range l.Signed() {
		net[t.Code] += t.Quantity
	}

	codes := make([]string, 0, len(net))
	for code := range net {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		switch {
		case net[code] == 0:
			liquidated = append(liquidated, code)
		case net[code] > 0:
			active = append(active, code)
		default:
			return nil, nil, &domain.ValidationError{
				Code:      code,
				Operation: domain.OperationSell,
				Reason:    "net quantity is negative (oversold)",
			}
		}
	}

	return liquidated, active, nil
}

// Current returns a sub-ledger holding every operation (dividends included)
// of assets that are not fully liquidated.
func (l *Ledger) Current() (*Ledger, error) {
	_, active, err := l.Partition()
	if err != nil {
		return nil, err
	}
	return l.subLedger(active), nil
}

// Past returns a sub-ledger holding every operation (dividends included) of
// fully liquidated assets.
func (l *Ledger) Past() (*Ledger, error) {
	liquidated, _, err := l.Partition()
	if err != nil {
		return nil, err
	}
	return l.subLedger(liquidated), nil
}

// Empty reports whether the ledger holds no transactions.
func (l *Ledger) Empty() bool { return len(l.transactions) == 0 }

func (l *Ledger) subLedger(codes []string) *Ledger {
	in := make(map[string]bool, len(codes))
	for _, code := range codes {
		in[code] = true
	}
	return &Ledger{transactions: l.filter(func(t domain.Transaction) bool { return in[t.Code] })}
}

func (l *Ledger) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(l.transactions))
	for _, t := range l.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
