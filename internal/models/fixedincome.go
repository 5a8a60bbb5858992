package models

import "time"

// RateType selects which rate components drive a fixed-income instrument.
// It is a closed set: every variant maps to an explicit component set, so a
// stored rate type can never silently disagree with the populated components.
type RateType string

const (
	RateFixed           RateType = "FIXED"
	RateInflation       RateType = "INFLATION"
	RateOvernight       RateType = "OVERNIGHT"
	RateFixedInflation  RateType = "FIXED+INFLATION"
	RateFixedOvernight  RateType = "FIXED+OVERNIGHT"
)

// RateComponent is one of the three independently switchable annualized
// percentage components of a fixed-income instrument.
type RateComponent string

const (
	ComponentFixed     RateComponent = "FIXED"
	ComponentInflation RateComponent = "INFLATION"
	ComponentOvernight RateComponent = "OVERNIGHT"
)

// Valid reports whether rt is one of the five known variants.
func (rt RateType) Valid() bool {
	switch rt {
	case RateFixed, RateInflation, RateOvernight, RateFixedInflation, RateFixedOvernight:
		return true
	}
	return false
}

// Hybrid reports whether rt combines two components. Hybrid types require
// the per-component rate layout; the legacy single-rate layout is accepted
// only for the three simple types.
func (rt RateType) Hybrid() bool {
	return rt == RateFixedInflation || rt == RateFixedOvernight
}

// Components returns the set of rate components that must be populated for
// this rate type.
func (rt RateType) Components() []RateComponent {
	switch rt {
	case RateFixed:
		return []RateComponent{ComponentFixed}
	case RateInflation:
		return []RateComponent{ComponentInflation}
	case RateOvernight:
		return []RateComponent{ComponentOvernight}
	case RateFixedInflation:
		return []RateComponent{ComponentFixed, ComponentInflation}
	case RateFixedOvernight:
		return []RateComponent{ComponentFixed, ComponentOvernight}
	}
	return nil
}

// FixedIncome is a fixed-income position (CDB, LCI, Tesouro, ...).
// Exactly the components implied by RateType may be non-zero; AnnualRate
// carries the legacy single-rate layout for records created before the
// per-component fields existed.
type FixedIncome struct {
	Seq            uint64    `badgerhold:"key" json:"id"`
	PortfolioID    uint64    `json:"portfolio_id"`
	Distributor    string    `json:"distributor"`
	Issuer         string    `json:"issuer"`
	InvestmentType string    `json:"investment_type"`
	RateType       RateType  `json:"rate_type"`
	AnnualRate     float64   `json:"annual_rate"`
	RateFixed      float64   `json:"rate_fixed"`
	RateInflation  float64   `json:"rate_inflation"`
	RateOvernight  float64   `json:"rate_overnight"`
	Contribution   time.Time `json:"date_aporte"`
	Amount         float64   `json:"aporte"`
	Reinvested     float64   `json:"reinvested"`
	Maturity       time.Time `json:"maturity_date"`
}

// Principal returns the contributed amount plus reinvested earnings.
func (f *FixedIncome) Principal() float64 {
	return f.Amount + f.Reinvested
}

// FixedIncomeProjection is the projected valuation of a fixed-income record
// at a reference date. Before maturity only the open-position fields are
// populated; at/after maturity the open fields read zero and the accrued
// result moves to the received fields.
type FixedIncomeProjection struct {
	Record FixedIncome `json:"record"`

	PortfolioName string `json:"portfolio_name"`

	AppliedValue       float64 `json:"applied_value"`
	ActiveAppliedValue float64 `json:"active_applied_value"`
	ElapsedDays        int     `json:"elapsed_days"`
	TotalDays          int     `json:"total_days"`
	IsMatured          bool    `json:"is_matured"`
	CurrentGrossValue  float64 `json:"current_gross_value"`
	CurrentIncome      float64 `json:"current_income"`
	FinalGrossValue    float64 `json:"final_gross_value"`
	FinalIncome        float64 `json:"final_income"`
	TotalReceived      float64 `json:"total_received"`
	RealizedIncome     float64 `json:"rendimento"`
}

// FixedIncomeSummary aggregates projections across a set of portfolios.
type FixedIncomeSummary struct {
	AppliedTotal   float64 `json:"applied_total"`
	CurrentTotal   float64 `json:"current_total"`
	IncomeTotal    float64 `json:"income_total"`
	FinalTotal     float64 `json:"final_total"`
	TotalReceived  float64 `json:"total_received"`
	RealizedTotal  float64 `json:"rendimento_recebido_total"`
	Count          int     `json:"count"`
}
