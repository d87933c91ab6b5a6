// Package recommend fetches investment recommendations and reshapes the
// backend's loosely keyed payload into one canonical schema for display.
package recommend

import "time"

// Recommendation is the canonical client-side schema. The backend's stored
// payloads vary in key names between agent versions; Normalize maps every
// accepted variant onto this shape.
type Recommendation struct {
	AllocationSummary map[string]string
	Instruments       Instruments
	Explanation       string
	InvestmentPlan    *InvestmentPlan
	ProjectedReturns  ProjectedReturns
	GeneratedAt       string
}

// Instruments groups the suggested holdings by category.
type Instruments struct {
	Stocks        []Stock
	MutualFunds   []Fund
	FixedDeposits []Deposit
}

type Stock struct {
	Symbol        string
	Name          string
	Sector        string
	AllocationPct float64
	Reason        string
}

type Fund struct {
	Code          string
	Name          string
	Category      string
	AllocationPct float64
	Reason        string
}

type Deposit struct {
	Bank          string
	TenureMonths  int
	RatePct       float64
	AllocationPct float64
	Reason        string
}

// InvestmentPlan carries the narrative budgeting section.
type InvestmentPlan struct {
	MonthlyInvestment string
	EmergencyFund     string
	GoalBreakdown     map[string]Goal
	RiskManagement    []string
}

type Goal struct {
	Name     string
	Amount   string
	Strategy string
}

// ProjectedReturns holds whichever form the backend produced: a figure map,
// a plain narrative, or both.
type ProjectedReturns struct {
	Figures   map[string]string
	Narrative string
}

// Snapshot is the stored recommendation plus its creation time.
type Snapshot struct {
	Recommendation Recommendation
	CreatedAt      time.Time
}
