package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultDistributionLimit = 4
	DefaultTrendWindow       = 10
	WeekDays                 = 7

	OthersLabel  = "Others"
	UnknownLabel = "Unknown"
)

type BalanceOverview struct {
	TotalReceivable decimal.Decimal
	TotalPayable    decimal.Decimal
	NetBalance      decimal.Decimal
}

// Slice is one segment of a distribution breakdown. FriendID is nil for the
// synthetic "Others" slice.
type Slice struct {
	FriendID *int64
	Label    string
	Color    string
	Value    decimal.Decimal
	Percent  decimal.Decimal
}

type DistributionResult struct {
	Payable    []Slice
	Receivable []Slice
}

type TrendKind int

const (
	TrendEmpty TrendKind = iota
	TrendSuccess
)

func (k TrendKind) String() string {
	if k == TrendSuccess {
		return "success"
	}
	return "empty"
}

// TrendResult is Empty when there are no transactions; otherwise Series and
// Labels are parallel and hold at most the trend window's worth of points.
type TrendResult struct {
	Kind   TrendKind
	Series []decimal.Decimal
	Labels []string
}

func (r TrendResult) IsEmpty() bool { return r.Kind == TrendEmpty }

type WeeklyFlowResult struct {
	Days     [WeekDays]time.Time
	Labels   [WeekDays]string
	Inbound  [WeekDays]decimal.Decimal
	Outbound [WeekDays]decimal.Decimal
}

// Dashboard bundles every analytics result computed from one snapshot.
type Dashboard struct {
	Overview     BalanceOverview
	Distribution DistributionResult
	Trend        TrendResult
	WeeklyFlow   WeeklyFlowResult
}
