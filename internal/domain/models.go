// Package domain provides core domain models and types.
package domain

// Operation classifies a ledger transaction.
type Operation string

const (
	OperationBuy      Operation = "Buy"
	OperationSell     Operation = "Sell"
	OperationDividend Operation = "Dividend"
)

// AssetType represents the type of financial product/instrument
type AssetType string

const (
	// AssetTypeStock represents individual stocks/shares
	AssetTypeStock AssetType = "Stock"
	// AssetTypeETF represents Exchange Traded Funds
	AssetTypeETF AssetType = "ETF"
)

// Transaction is a single immutable ledger record. Quantities and amounts are
// recorded positive for every operation; sell legs are negated by the ledger
// views that need signed quantities.
type Transaction struct {
	Operation    Operation `json:"operation"`
	Code         string    `json:"code"`
	Code2        string    `json:"code2"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Industry     string    `json:"industry"`
	Market       string    `json:"market"`
	Currency     string    `json:"currency"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Quantity     int64     `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Amount       float64   `json:"amount"`
	BrokerFee    float64   `json:"broker_fee"`
	TaxFee       float64   `json:"tax_fee"`
	ExchangeRate float64   `json:"exchange_rate"`
}

// TotalFee returns the combined broker and tax fee of the transaction.
func (t Transaction) TotalFee() float64 {
	return t.BrokerFee + t.TaxFee
}

// AssetKey is the composite key positions are aggregated under.
type AssetKey struct {
	Type     string `json:"type"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
	Code     string `json:"code"`
	Code2    string `json:"code2"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Key extracts the aggregation key from a transaction.
func (t Transaction) Key() AssetKey {
	return AssetKey{
		Type:     t.Type,
		Industry: t.Industry,
		Market:   t.Market,
		Code:     t.Code,
		Code2:    t.Code2,
		Name:     t.Name,
		Currency: t.Currency,
	}
}

// PricePoint is a single close price observation for a symbol.
type PricePoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
	Symbol string  `json:"symbol"`
}

// Benchmark identifies the benchmark series used by the risk model.
type Benchmark struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// PortfolioSettings holds the per-portfolio analysis configuration.
//
// Period is either an explicit [start, end] date range (both set) or a
// trailing window of Years counted back from today (Years > 0).
type PortfolioSettings struct {
	Name              string    `json:"name"`
	ReferenceCurrency string    `json:"reference_currency"`
	Benchmark         Benchmark `json:"benchmark"`
	// DayShift aligns cross-market series with the benchmark calendar:
	// -1 advances the asset by one day, +1 delays it, 0 leaves it as is.
	DayShift    int     `json:"day_shift"`
	PeriodStart string  `json:"period_start"` // YYYY-MM-DD, empty when Years is used
	PeriodEnd   string  `json:"period_end"`   // YYYY-MM-DD, empty when Years is used
	Years       int     `json:"years"`
	NumSim      int     `json:"num_sim"`
	TimeSim     int     `json:"time_sim"`
	RiskFree    float64 `json:"risk_free"` // annualized
}
