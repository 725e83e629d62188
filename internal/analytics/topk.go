package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopWithOverflow ranks items by value, descending, keeping the relative
// order of equal values. When there are at most k+1 items every item gets its
// own slice; otherwise the first k are kept and the remainder is summed into a
// single trailing slice built by overflow.
func TopWithOverflow[T any](
	items []T,
	k int,
	value func(T) decimal.Decimal,
	slice func(rank int, item T) Slice,
	overflow func(total decimal.Decimal) Slice,
) []Slice {
	if len(items) == 0 {
		return []Slice{}
	}

	ranked := make([]T, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return value(ranked[i]).GreaterThan(value(ranked[j]))
	})

	if len(ranked) <= k+1 {
		out := make([]Slice, len(ranked))
		for i, it := range ranked {
			out[i] = slice(i, it)
		}
		return out
	}

	out := make([]Slice, 0, k+1)
	for i := 0; i < k; i++ {
		out = append(out, slice(i, ranked[i]))
	}
	rest := decimal.Zero
	for _, it := range ranked[k:] {
		rest = rest.Add(value(it))
	}
	return append(out, overflow(rest))
}

var hundred = decimal.NewFromInt(100)

// withPercent fills each slice's share of the total, rounded to two places.
func withPercent(slices []Slice) []Slice {
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Value)
	}
	if total.IsZero() {
		return slices
	}
	for i := range slices {
		slices[i].Percent = slices[i].Value.Mul(hundred).Div(total).Round(2)
	}
	return slices
}
