package core

import (
	"sort"
	"time"
)

// BudgetStatus classifies how much of a budget has been consumed.
type BudgetStatus string

const (
	BudgetSafe      BudgetStatus = "safe"
	BudgetNearLimit BudgetStatus = "near_limit"
	BudgetExceeded  BudgetStatus = "exceeded"
)

// NearLimitThreshold is the percent-used value at which a budget starts
// alerting. 100% is still near-limit; exceeded requires strictly more.
const NearLimitThreshold = 80.0

// DashboardAlertLimit caps the active-alerts list on the dashboard.
const DashboardAlertLimit = 5

// BudgetUsage is the per-budget result every budget view is built from.
type BudgetUsage struct {
	Budget      Budget
	Spent       Money
	PercentUsed float64
	Remaining   Money
	Status      BudgetStatus
	Expired     bool
}

// Classify maps percent-used to a status. Precedence: exceeded is
// strictly over 100%, near-limit starts at the threshold inclusive.
func Classify(percentUsed float64) BudgetStatus {
	switch {
	case percentUsed > 100:
		return BudgetExceeded
	case percentUsed >= NearLimitThreshold:
		return BudgetNearLimit
	default:
		return BudgetSafe
	}
}

// ComputeUsage sums the transactions that fall inside the budget's
// window and classifies the result.
//
// The window is the closed interval [StartDate, EndDate], with a nil
// EndDate standing in for today. A transaction counts iff its category
// matches and its date lies within the window, bounds included. Amounts
// are summed as raw magnitudes; only expense categories are accepted at
// budget creation, so no sign correction applies here. Remaining may go
// negative when the budget is exceeded and is never clamped.
func ComputeUsage(b Budget, transactions []Transaction, today time.Time) BudgetUsage {
	start := DateOnly(b.StartDate)
	end := DateOnly(today)
	if b.EndDate != nil {
		end = DateOnly(*b.EndDate)
	}

	var spent int64
	for _, tx := range transactions {
		if tx.CategoryID != b.CategoryID {
			continue
		}
		d := DateOnly(tx.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		spent += tx.Amount.Cents
	}

	// Amount is validated > 0 before a budget ever reaches the calculator.
	percent := float64(spent) / float64(b.Amount.Cents) * 100

	return BudgetUsage{
		Budget:      b,
		Spent:       Money{Cents: spent},
		PercentUsed: percent,
		Remaining:   Money{Cents: b.Amount.Cents - spent},
		Status:      Classify(percent),
		Expired:     b.ExpiredOn(today),
	}
}

// ActiveAlerts selects the usages worth notifying about: budgets with
// the notify flag, still active, at or past the near-limit threshold.
// Results are ordered by percent used descending and capped at max.
// Expired budgets keep their usage in list views but never alert.
func ActiveAlerts(usages []BudgetUsage, max int) []BudgetUsage {
	alerts := make([]BudgetUsage, 0, len(usages))
	for _, u := range usages {
		if !u.Budget.Notify || u.Expired {
			continue
		}
		if u.PercentUsed >= NearLimitThreshold {
			alerts = append(alerts, u)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].PercentUsed > alerts[j].PercentUsed
	})
	if max > 0 && len(alerts) > max {
		alerts = alerts[:max]
	}
	return alerts
}

// BudgetStats aggregates a user's budgets for the dashboard header.
type BudgetStats struct {
	Total         int
	Active        int
	Expired       int
	TotalBudgeted Money
	TotalSpent    Money
}

// SummarizeBudgets reduces per-budget usages into the aggregate view.
// TotalBudgeted sums every limit; TotalSpent sums spend of active
// budgets only.
func SummarizeBudgets(usages []BudgetUsage) BudgetStats {
	var stats BudgetStats
	for _, u := range usages {
		stats.Total++
		stats.TotalBudgeted.Cents += u.Budget.Amount.Cents
		if u.Expired {
			stats.Expired++
			continue
		}
		stats.Active++
		stats.TotalSpent.Cents += u.Spent.Cents
	}
	return stats
}
