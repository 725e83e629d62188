package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// ComputeWeeklyFlow sums CREDIT (inbound) and DEBIT (outbound) amounts for
// each of the seven calendar days ending on now's date, in now's location.
func ComputeWeeklyFlow(txns []domain.Transaction, now time.Time) WeeklyFlowResult {
	loc := now.Location()
	y, m, d := now.Date()

	var res WeeklyFlowResult
	index := make(map[dayKey]int, WeekDays)
	for i := 0; i < WeekDays; i++ {
		day := time.Date(y, m, d-(WeekDays-1-i), 0, 0, 0, 0, loc)
		res.Days[i] = day
		res.Labels[i] = day.Weekday().String()[:3]
		res.Inbound[i] = decimal.Zero
		res.Outbound[i] = decimal.Zero
		index[keyOf(day)] = i
	}

	for _, t := range txns {
		i, ok := index[keyOf(t.OccurredAt.In(loc))]
		if !ok {
			continue
		}
		switch t.Direction {
		case domain.DirectionCredit:
			res.Inbound[i] = res.Inbound[i].Add(t.Amount)
		case domain.DirectionDebit:
			res.Outbound[i] = res.Outbound[i].Add(t.Amount)
		}
	}
	return res
}
