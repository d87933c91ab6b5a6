package recommend

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Normalize maps a raw recommendation document onto the canonical schema.
// Accepted input variants, per the payloads the advisor has produced:
//   - instruments may arrive doubly nested under a second
//     "suggested_instruments" key
//   - funds carry "name" or "scheme_name"
//   - deposits carry "rate_pct" or "interest_rate"
//   - returns arrive as a "projected_returns" map, a
//     "projected_returns_text" narrative, or both
//
// Unrecognized keys are treated as absent.
func Normalize(raw json.RawMessage) (*Recommendation, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "[Normalize] decoding recommendation document")
	}

	rec := &Recommendation{
		AllocationSummary: stringMap(doc["allocation_summary"]),
		Instruments:       normalizeInstruments(doc["suggested_instruments"]),
		Explanation:       asString(doc["explanation"]),
		InvestmentPlan:    normalizePlan(doc["investment_plan"]),
		GeneratedAt:       asString(doc["generated_at"]),
	}
	rec.ProjectedReturns = ProjectedReturns{
		Figures:   stringMap(doc["projected_returns"]),
		Narrative: asString(doc["projected_returns_text"]),
	}
	return rec, nil
}

func normalizeInstruments(v any) Instruments {
	m, ok := v.(map[string]any)
	if !ok {
		return Instruments{}
	}
	// Older payloads wrap the categories one level deeper.
	if inner, ok := m["suggested_instruments"].(map[string]any); ok {
		m = inner
	}

	var out Instruments
	for _, item := range objects(m["stocks"]) {
		out.Stocks = append(out.Stocks, Stock{
			Symbol:        asString(item["symbol"]),
			Name:          asString(item["name"]),
			Sector:        asString(item["sector"]),
			AllocationPct: asFloat(item["allocation_percentage"]),
			Reason:        asString(item["reason"]),
		})
	}
	for _, item := range objects(m["mutual_funds"]) {
		name := asString(item["name"])
		if name == "" {
			name = asString(item["scheme_name"])
		}
		out.MutualFunds = append(out.MutualFunds, Fund{
			Code:          asString(item["code"]),
			Name:          name,
			Category:      asString(item["category"]),
			AllocationPct: asFloat(item["allocation_percentage"]),
			Reason:        asString(item["reason"]),
		})
	}
	for _, item := range objects(m["fixed_deposits"]) {
		rate := asFloat(item["rate_pct"])
		if rate == 0 {
			rate = asFloat(item["interest_rate"])
		}
		out.FixedDeposits = append(out.FixedDeposits, Deposit{
			Bank:          asString(item["bank"]),
			TenureMonths:  int(asFloat(item["tenure_months"])),
			RatePct:       rate,
			AllocationPct: asFloat(item["allocation_percentage"]),
			Reason:        asString(item["reason"]),
		})
	}
	return out
}

func normalizePlan(v any) *InvestmentPlan {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	plan := &InvestmentPlan{
		MonthlyInvestment: asString(m["monthly_investment"]),
		EmergencyFund:     asString(m["emergency_fund"]),
	}
	if goals, ok := m["goal_breakdown"].(map[string]any); ok {
		plan.GoalBreakdown = make(map[string]Goal, len(goals))
		for key, gv := range goals {
			g, ok := gv.(map[string]any)
			if !ok {
				continue
			}
			plan.GoalBreakdown[key] = Goal{
				Name:     asString(g["name"]),
				Amount:   asString(g["amount"]),
				Strategy: asString(g["strategy"]),
			}
		}
	}
	if items, ok := m["risk_management"].([]any); ok {
		for _, item := range items {
			if s := asString(item); s != "" {
				plan.RiskManagement = append(plan.RiskManagement, s)
			}
		}
	}
	return plan
}

func objects(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = asString(val)
	}
	return out
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case string:
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
