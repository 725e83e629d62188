package analytics

import (
	"context"
	"time"

	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/ledger"
	"github.com/josh-kwaku/khata/internal/stream"
)

type Settings struct {
	DistributionLimit int
	TrendWindow       int
	Palette           Palette
	// Location is used for trend labels. Weekly windows follow the day ticker.
	Location *time.Location
}

func DefaultSettings() Settings {
	return Settings{
		DistributionLimit: DefaultDistributionLimit,
		TrendWindow:       DefaultTrendWindow,
		Palette:           DefaultPalette,
		Location:          time.Local,
	}
}

// Live is an analytics result together with the freshness of the data it was
// computed from.
type Live[T any] struct {
	Value     T
	Stale     bool
	UpdatedAt time.Time
}

// Pipeline holds one live stream per result. Every stream recomputes from the
// full ledger state whenever one of its inputs changes.
type Pipeline struct {
	Overview     *stream.Subject[Live[BalanceOverview]]
	Distribution *stream.Subject[Live[DistributionResult]]
	Trend        *stream.Subject[Live[TrendResult]]
	WeeklyFlow   *stream.Subject[Live[WeeklyFlowResult]]
	Dashboard    *stream.Subject[Live[Dashboard]]
}

// NewPipeline wires the engines onto the ledger state stream. Friends and
// transactions arrive as one value, so a result never pairs one reload's
// friends with another reload's transactions. The streams stop when ctx ends.
func NewPipeline(
	ctx context.Context,
	state stream.Source[ledger.State],
	days stream.Source[time.Time],
	settings Settings,
) *Pipeline {
	return &Pipeline{
		Overview: stream.Map(ctx, state, func(st ledger.State) Live[BalanceOverview] {
			t := st.Transactions
			return Live[BalanceOverview]{Value: ComputeOverview(t.Data), Stale: t.Stale, UpdatedAt: t.LoadedAt}
		}),
		Trend: stream.Map(ctx, state, func(st ledger.State) Live[TrendResult] {
			t := st.Transactions
			return Live[TrendResult]{
				Value:     ComputeTrend(t.Data, settings.TrendWindow, settings.Location),
				Stale:     t.Stale,
				UpdatedAt: t.LoadedAt,
			}
		}),
		Distribution: stream.Map(ctx, state, func(st ledger.State) Live[DistributionResult] {
			stale, at := st.Freshness()
			return Live[DistributionResult]{
				Value:     ComputeDistribution(st.Transactions.Data, st.Friends.Data, settings.DistributionLimit, settings.Palette),
				Stale:     stale,
				UpdatedAt: at,
			}
		}),
		WeeklyFlow: stream.Combine2(ctx, state, days, func(st ledger.State, now time.Time) Live[WeeklyFlowResult] {
			t := st.Transactions
			return Live[WeeklyFlowResult]{Value: ComputeWeeklyFlow(t.Data, now), Stale: t.Stale, UpdatedAt: t.LoadedAt}
		}),
		Dashboard: stream.Combine2(ctx, state, days, func(st ledger.State, now time.Time) Live[Dashboard] {
			stale, at := st.Freshness()
			return Live[Dashboard]{
				Value:     ComputeDashboard(st.Transactions.Data, st.Friends.Data, now, settings),
				Stale:     stale,
				UpdatedAt: at,
			}
		}),
	}
}

// ComputeDashboard runs every engine over the same snapshot.
func ComputeDashboard(txns []domain.Transaction, friends []domain.Friend, now time.Time, settings Settings) Dashboard {
	return Dashboard{
		Overview:     ComputeOverview(txns),
		Distribution: ComputeDistribution(txns, friends, settings.DistributionLimit, settings.Palette),
		Trend:        ComputeTrend(txns, settings.TrendWindow, settings.Location),
		WeeklyFlow:   ComputeWeeklyFlow(txns, now),
	}
}
