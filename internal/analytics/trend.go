package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

const dayLabelLayout = "02 Jan"

// ComputeTrend replays transactions in time order and keeps the running
// balance after each one. Only the last window points survive, and each is
// reported as a magnitude: the sign comes from the overview's net balance.
func ComputeTrend(txns []domain.Transaction, window int, loc *time.Location) TrendResult {
	if len(txns) == 0 {
		return TrendResult{Kind: TrendEmpty}
	}
	if loc == nil {
		loc = time.Local
	}

	ordered := make([]domain.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	start := 0
	if window > 0 && len(ordered) > window {
		start = len(ordered) - window
	}

	running := decimal.Zero
	series := make([]decimal.Decimal, 0, len(ordered)-start)
	labels := make([]string, 0, len(ordered)-start)
	for i, t := range ordered {
		running = running.Add(t.Signed())
		if i < start {
			continue
		}
		series = append(series, running.Abs())
		labels = append(labels, t.OccurredAt.In(loc).Format(dayLabelLayout))
	}

	return TrendResult{Kind: TrendSuccess, Series: series, Labels: labels}
}
