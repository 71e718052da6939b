package types

import (
	"time"
)

// StatementKind identifies one of the four DFP statement tables.
type StatementKind int

const (
	Income      StatementKind = iota // DRE
	Assets                           // BPA
	Liabilities                      // BPP
	CashFlow                         // DFC_MI
)

// Statements lists every statement kind in file order.
var Statements = []StatementKind{Income, Assets, Liabilities, CashFlow}

// Tag is the statement suffix used in CVM file names (dfp_cia_aberta_<TAG>_con_<year>.csv).
func (k StatementKind) Tag() string {
	switch k {
	case Income:
		return "DRE"
	case Assets:
		return "BPA"
	case Liabilities:
		return "BPP"
	case CashFlow:
		return "DFC_MI"
	}
	return ""
}

func (k StatementKind) String() string { return k.Tag() }

// AccountCode is a dotted CVM chart-of-accounts code.
type AccountCode string

const (
	NetRevenue        AccountCode = "3.01"
	EBIT              AccountCode = "3.05"
	FinancialExpenses AccountCode = "3.07"
	PreTaxIncome      AccountCode = "3.09"
	IncomeTax         AccountCode = "3.10"
	NetIncome         AccountCode = "3.11"

	TotalAssets      AccountCode = "1"
	CurrentAssets    AccountCode = "1.01"
	Cash             AccountCode = "1.01.01"
	Receivables      AccountCode = "1.01.03"
	Inventories      AccountCode = "1.01.04"
	NonCurrentAssets AccountCode = "1.02"
	FixedAssets      AccountCode = "1.02.01"
	Intangibles      AccountCode = "1.02.03"

	TotalLiabilities      AccountCode = "2"
	CurrentLiabilities    AccountCode = "2.01"
	Suppliers             AccountCode = "2.01.02"
	ShortTermDebt         AccountCode = "2.01.04"
	NonCurrentLiabilities AccountCode = "2.02"
	LongTermDebt          AccountCode = "2.02.01"
	Equity                AccountCode = "2.03"

	DepreciationAmortization AccountCode = "6.01"
)

// Accounts is every account code the models read.
var Accounts = []AccountCode{
	NetRevenue, EBIT, FinancialExpenses, PreTaxIncome, IncomeTax, NetIncome,
	TotalAssets, CurrentAssets, Cash, Receivables, Inventories, NonCurrentAssets, FixedAssets, Intangibles,
	TotalLiabilities, CurrentLiabilities, Suppliers, ShortTermDebt, NonCurrentLiabilities, LongTermDebt, Equity,
	DepreciationAmortization,
}

// Statement returns the table an account is reported in, derived from the
// first segment of the code.
func (c AccountCode) Statement() StatementKind {
	switch {
	case len(c) > 0 && c[0] == '1':
		return Assets
	case len(c) > 0 && c[0] == '2':
		return Liabilities
	case len(c) > 0 && c[0] == '6':
		return CashFlow
	default:
		return Income
	}
}

// Order is the ORDEM_EXERC flag of a filing row.
type Order string

const (
	OrderFinal Order = "ÚLTIMO"
	OrderPrior Order = "PENÚLTIMO"
)

// FilingRow is one reported value from a DFP statement.
type FilingRow struct {
	Company string
	Account AccountCode
	RefDate time.Time
	Order   Order
	Value   float64
}

// TickerEntry maps a CVM company code to one market ticker.
type TickerEntry struct {
	Company string `yaml:"cvm" json:"cvm"`
	Ticker  string `yaml:"ticker" json:"ticker"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Quote holds the market identity of a ticker. Nil pointers mean the
// provider did not report the field.
type Quote struct {
	Name      string
	Price     *float64
	PrevClose *float64
	MarketCap *float64
	Shares    *float64
}

// CurrentPrice is the regular market price, or the previous close when the
// market price is missing.
func (q Quote) CurrentPrice() *float64 {
	if q.Price != nil {
		return q.Price
	}
	return q.PrevClose
}

// PricePoint is one daily adjusted close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// MarketSnapshot is shared read-only by every company of a run.
type MarketSnapshot struct {
	RiskFree      float64      `json:"risk_free"`
	MarketReturn  float64      `json:"market_return"`
	EquityPremium float64      `json:"equity_premium"`
	Index         []PricePoint `json:"-"`
}

// ValuationResult is the per-company output of a valuation run.
type ValuationResult struct {
	Ticker         string  `json:"ticker"`
	Company        string  `json:"cvm"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	FairPrice      float64 `json:"fair_price"`
	MarginOfSafety float64 `json:"margin_of_safety"`
	MarketCap      float64 `json:"market_cap"`
	Shares         float64 `json:"shares"`
	TotalDebt      float64 `json:"total_debt"`
	InvestedCap    float64 `json:"invested_capital"`
	NOPATAvg       float64 `json:"nopat_avg"`
	FCOAvg         float64 `json:"fco_avg"`
	TaxRate        float64 `json:"tax_rate"`
	ROIC           float64 `json:"roic"`
	Beta           float64 `json:"beta"`
	Ke             float64 `json:"ke"`
	Kd             float64 `json:"kd"`
	WACC           float64 `json:"wacc"`
	Spread         float64 `json:"spread"`
	EVA            float64 `json:"eva"`
	CurrentWealth  float64 `json:"current_wealth"`
	FutureWealth   float64 `json:"future_wealth"`
	EFV            float64 `json:"efv"`
	ResidualValue  float64 `json:"residual_value"`
	EquityValue    float64 `json:"equity_value"`

	NOPATSeries []YearValue `json:"nopat_series,omitempty"`
	FCOSeries   []YearValue `json:"fco_series,omitempty"`
	ROICSeries  []YearValue `json:"roic_series,omitempty"`
	WACCSeries  []YearValue `json:"wacc_series,omitempty"`
}

// FleurietResult is the per-company health assessment.
type FleurietResult struct {
	Ticker   string   `json:"ticker"`
	Company  string   `json:"cvm"`
	Name     string   `json:"name"`
	Year     int      `json:"year"`
	NCG      float64  `json:"ncg"`
	CDG      float64  `json:"cdg"`
	Treasury float64  `json:"treasury"`
	Scissor  bool     `json:"scissor_effect"`
	ZScore   *float64 `json:"z_score"`
	Risk     string   `json:"risk"`
}
