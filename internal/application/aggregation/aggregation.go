// Package aggregation computes the figures behind every report. All
// functions are pure, accept empty input and never fail.
package aggregation

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// DefaultTopN is how many tests the summary report ranks.
const DefaultTopN = 5

// price maps non-finite prices to zero.
func price(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// RevenueOf sums the snapshot prices of an encounter's line items.
func RevenueOf(e *entities.Encounter) float64 {
	if e == nil {
		return 0
	}
	var total float64
	for _, item := range e.LineItems {
		total += price(item.Price)
	}
	return total
}

// TotalRevenue sums RevenueOf across encounters.
func TotalRevenue(encounters []*entities.Encounter) float64 {
	var total float64
	for _, e := range encounters {
		total += RevenueOf(e)
	}
	return total
}

// LineItemCount counts the line items across encounters.
func LineItemCount(encounters []*entities.Encounter) int {
	var n int
	for _, e := range encounters {
		if e != nil {
			n += len(e.LineItems)
		}
	}
	return n
}

// AveragePrice is the mean catalog price, 0 for an empty catalog.
func AveragePrice(tests []*entities.TestDefinition) float64 {
	if len(tests) == 0 {
		return 0
	}
	var total float64
	for _, t := range tests {
		total += price(t.Price)
	}
	return total / float64(len(tests))
}

// AveragePerEncounter divides revenue by the encounter count, 0 when there
// are none.
func AveragePerEncounter(revenue float64, encounters int) float64 {
	if encounters == 0 {
		return 0
	}
	return revenue / float64(encounters)
}

// UsageCounts counts line items per test name, skipping blank names. The
// result is ordered by count descending with ties in first-seen order.
func UsageCounts(encounters []*entities.Encounter) []entities.UsageCount {
	index := make(map[string]int)
	var counts []entities.UsageCount
	for _, e := range encounters {
		if e == nil {
			continue
		}
		for _, item := range e.LineItems {
			if item.TestName == "" {
				continue
			}
			i, ok := index[item.TestName]
			if !ok {
				i = len(counts)
				index[item.TestName] = i
				counts = append(counts, entities.UsageCount{Name: item.TestName})
			}
			counts[i].Count++
		}
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// TopN returns the first n usage counts with their share of all counted
// line items, formatted to one decimal place. A zero total yields nothing.
func TopN(usage []entities.UsageCount, n int) []entities.TopTest {
	var total int
	for _, u := range usage {
		total += u.Count
	}
	if total == 0 || n <= 0 {
		return []entities.TopTest{}
	}
	if n > len(usage) {
		n = len(usage)
	}

	top := make([]entities.TopTest, 0, n)
	for _, u := range usage[:n] {
		pct := float64(u.Count) / float64(total) * 100
		top = append(top, entities.TopTest{
			Name:       u.Name,
			Count:      u.Count,
			Percentage: strconv.FormatFloat(pct, 'f', 1, 64),
		})
	}
	return top
}

// DailyAverage spreads encounter, revenue and line item totals over the
// days between start and end. Encounters and line items are rounded to one
// decimal place, revenue to two.
func DailyAverage(encounters []*entities.Encounter, start, end time.Time) entities.DailyAverage {
	present := 0
	for _, e := range encounters {
		if e != nil {
			present++
		}
	}
	if present == 0 || start.IsZero() || end.IsZero() {
		return entities.DailyAverage{}
	}
	days := float64(entities.SpanDays(start, end))
	return entities.DailyAverage{
		Encounters: round(float64(present)/days, 1),
		Revenue:    round(TotalRevenue(encounters)/days, 2),
		LineItems:  round(float64(LineItemCount(encounters))/days, 1),
	}
}

// BucketByDay groups encounters by calendar day in loc, keyed by
// entities.DayLayout.
func BucketByDay(encounters []*entities.Encounter, loc *time.Location) map[string]entities.DayBucket {
	if loc == nil {
		loc = time.Local
	}
	buckets := make(map[string]entities.DayBucket)
	for _, e := range encounters {
		if e == nil {
			continue
		}
		day := e.Date.In(loc).Format(entities.DayLayout)
		b := buckets[day]
		b.Count++
		b.Revenue += RevenueOf(e)
		buckets[day] = b
	}
	return buckets
}

// FinancialBreakdown totals revenue per test name in first-seen order.
// Line items without a name are grouped under unnamed.
func FinancialBreakdown(encounters []*entities.Encounter, unnamed string) []entities.FinancialLine {
	index := make(map[string]int)
	lines := []entities.FinancialLine{}
	for _, e := range encounters {
		if e == nil {
			continue
		}
		for _, item := range e.LineItems {
			name := item.TestName
			if name == "" {
				name = unnamed
			}
			i, ok := index[name]
			if !ok {
				i = len(lines)
				index[name] = i
				lines = append(lines, entities.FinancialLine{Name: name})
			}
			lines[i].Count++
			lines[i].TotalRevenue += price(item.Price)
		}
	}
	for i := range lines {
		lines[i].AveragePrice = lines[i].TotalRevenue / float64(lines[i].Count)
	}
	return lines
}

// TestUsage reports, per catalog test, how many line items carry its name
// and what that usage is worth at the current catalog price.
func TestUsage(tests []*entities.TestDefinition, encounters []*entities.Encounter, noDescription string) []entities.TestUsage {
	byName := make(map[string]int)
	for _, e := range encounters {
		if e == nil {
			continue
		}
		for _, item := range e.LineItems {
			byName[item.TestName]++
		}
	}

	usage := make([]entities.TestUsage, 0, len(tests))
	for _, t := range tests {
		desc := t.Description
		if desc == "" {
			desc = noDescription
		}
		count := byName[t.Name]
		p := price(t.Price)
		usage = append(usage, entities.TestUsage{
			ID:           t.ID,
			Name:         t.Name,
			Price:        p,
			Description:  desc,
			UsageCount:   count,
			TotalRevenue: float64(count) * p,
		})
	}
	return usage
}

// Dashboard builds the statistics panel. Today and this month count every
// encounter dated on or after the start of today or of the month in now's
// location.
func Dashboard(now time.Time, tests []*entities.TestDefinition, encounters []*entities.Encounter) entities.Statistics {
	today := entities.StartOfDay(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := entities.Statistics{
		Tests: entities.CatalogStatistics{
			Total:    len(tests),
			AvgPrice: round(AveragePrice(tests), 2),
		},
	}
	var revenueTotal, revenueToday, revenueMonth float64
	for _, e := range encounters {
		if e == nil {
			continue
		}
		revenue := RevenueOf(e)
		stats.Patients.Total++
		revenueTotal += revenue
		if !e.Date.Before(today) {
			stats.Patients.Today++
			revenueToday += revenue
		}
		if !e.Date.Before(monthStart) {
			stats.Patients.ThisMonth++
			revenueMonth += revenue
		}
	}
	stats.Revenue = entities.WindowRevenue{
		Total:     round(revenueTotal, 2),
		Today:     round(revenueToday, 2),
		ThisMonth: round(revenueMonth, 2),
	}
	return stats
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
