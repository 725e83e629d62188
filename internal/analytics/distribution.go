package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

type Palette struct {
	Colors []string
	Others string
}

// Color cycles through the palette by rank.
func (p Palette) Color(rank int) string {
	if len(p.Colors) == 0 {
		return p.Others
	}
	return p.Colors[rank%len(p.Colors)]
}

var DefaultPalette = Palette{
	Colors: []string{"#4CAF50", "#2196F3", "#FFC107", "#FF5722", "#9C27B0"},
	Others: "#9E9E9E",
}

type friendNet struct {
	friendID int64
	net      decimal.Decimal
}

// ComputeDistribution splits friends by the sign of their net balance and
// ranks each side by magnitude. Friends with a positive net owe the user
// (receivable); negative means the user owes them (payable). Equal
// magnitudes are ordered by ascending friend ID.
func ComputeDistribution(txns []domain.Transaction, friends []domain.Friend, limit int, palette Palette) DistributionResult {
	names := make(map[int64]string, len(friends))
	for _, f := range friends {
		names[f.ID] = f.Name
	}

	nets, ids := NetByFriend(txns)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var payable, receivable []friendNet
	for _, id := range ids {
		n := nets[id]
		switch n.Sign() {
		case -1:
			payable = append(payable, friendNet{friendID: id, net: n})
		case 1:
			receivable = append(receivable, friendNet{friendID: id, net: n})
		}
	}

	return DistributionResult{
		Payable:    summarize(payable, limit, palette, names),
		Receivable: summarize(receivable, limit, palette, names),
	}
}

func summarize(bucket []friendNet, limit int, palette Palette, names map[int64]string) []Slice {
	magnitude := func(f friendNet) decimal.Decimal { return f.net.Abs() }

	slices := TopWithOverflow(bucket, limit, magnitude,
		func(rank int, f friendNet) Slice {
			id := f.friendID
			label, ok := names[id]
			if !ok || label == "" {
				label = UnknownLabel
			}
			return Slice{
				FriendID: &id,
				Label:    label,
				Color:    palette.Color(rank),
				Value:    magnitude(f),
			}
		},
		func(total decimal.Decimal) Slice {
			return Slice{Label: OthersLabel, Color: palette.Others, Value: total}
		},
	)
	return withPercent(slices)
}
