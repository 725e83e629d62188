package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/analytics"
	"github.com/josh-kwaku/khata/internal/domain"
)

type friendDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toFriendDTO(f *domain.Friend) friendDTO {
	return friendDTO{
		ID:        f.ID,
		Name:      f.Name,
		AvatarURL: f.AvatarURL,
		CreatedAt: f.CreatedAt,
	}
}

type transactionDTO struct {
	ID          int64      `json:"id"`
	FriendID    int64      `json:"friend_id"`
	Amount      string     `json:"amount"`
	Direction   string     `json:"direction"`
	Description string     `json:"description"`
	IsSettled   bool       `json:"is_settled"`
	DueDate     *time.Time `json:"due_date"`
	OccurredAt  time.Time  `json:"occurred_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		FriendID:    t.FriendID,
		Amount:      money(t.Amount),
		Direction:   string(t.Direction),
		Description: t.Description,
		IsSettled:   t.IsSettled,
		DueDate:     t.DueDate,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}

type summaryDTO struct {
	FriendID    int64  `json:"friend_id"`
	Name        string `json:"name"`
	TotalCredit string `json:"total_credit"`
	TotalDebit  string `json:"total_debit"`
	Net         string `json:"net"`
}

func toSummaryDTO(s domain.FriendSummary) summaryDTO {
	return summaryDTO{
		FriendID:    s.FriendID,
		Name:        s.Name,
		TotalCredit: money(s.TotalCredit),
		TotalDebit:  money(s.TotalDebit),
		Net:         money(s.Net()),
	}
}

type liveDTO[T any] struct {
	Result    T         `json:"result"`
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLiveDTO[A, B any](l analytics.Live[A], convert func(A) B) liveDTO[B] {
	return liveDTO[B]{Result: convert(l.Value), Stale: l.Stale, UpdatedAt: l.UpdatedAt}
}

type overviewDTO struct {
	TotalReceivable string `json:"total_receivable"`
	TotalPayable    string `json:"total_payable"`
	NetBalance      string `json:"net_balance"`
}

func toOverviewDTO(o analytics.BalanceOverview) overviewDTO {
	return overviewDTO{
		TotalReceivable: money(o.TotalReceivable),
		TotalPayable:    money(o.TotalPayable),
		NetBalance:      money(o.NetBalance),
	}
}

type sliceDTO struct {
	FriendID *int64 `json:"friend_id"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Value    string `json:"value"`
	Percent  string `json:"percent"`
}

type distributionDTO struct {
	Payable    []sliceDTO `json:"payable"`
	Receivable []sliceDTO `json:"receivable"`
}

func toDistributionDTO(d analytics.DistributionResult) distributionDTO {
	return distributionDTO{
		Payable:    toSliceDTOs(d.Payable),
		Receivable: toSliceDTOs(d.Receivable),
	}
}

func toSliceDTOs(slices []analytics.Slice) []sliceDTO {
	out := make([]sliceDTO, len(slices))
	for i, s := range slices {
		out[i] = sliceDTO{
			FriendID: s.FriendID,
			Label:    s.Label,
			Color:    s.Color,
			Value:    money(s.Value),
			Percent:  s.Percent.StringFixed(2),
		}
	}
	return out
}

type trendDTO struct {
	Status string   `json:"status"`
	Series []string `json:"series"`
	Labels []string `json:"labels"`
}

func toTrendDTO(t analytics.TrendResult) trendDTO {
	series := make([]string, len(t.Series))
	for i, v := range t.Series {
		series[i] = money(v)
	}
	labels := t.Labels
	if labels == nil {
		labels = []string{}
	}
	return trendDTO{Status: t.Kind.String(), Series: series, Labels: labels}
}

type weeklyDTO struct {
	Days     []string `json:"days"`
	Labels   []string `json:"labels"`
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

func toWeeklyDTO(w analytics.WeeklyFlowResult) weeklyDTO {
	out := weeklyDTO{
		Days:     make([]string, analytics.WeekDays),
		Labels:   make([]string, analytics.WeekDays),
		Inbound:  make([]string, analytics.WeekDays),
		Outbound: make([]string, analytics.WeekDays),
	}
	for i := range analytics.WeekDays {
		out.Days[i] = w.Days[i].Format(time.DateOnly)
		out.Labels[i] = w.Labels[i]
		out.Inbound[i] = money(w.Inbound[i])
		out.Outbound[i] = money(w.Outbound[i])
	}
	return out
}

type dashboardDTO struct {
	Overview     overviewDTO     `json:"overview"`
	Distribution distributionDTO `json:"distribution"`
	Trend        trendDTO        `json:"trend"`
	WeeklyFlow   weeklyDTO       `json:"weekly_flow"`
}

func toDashboardDTO(d analytics.Dashboard) dashboardDTO {
	return dashboardDTO{
		Overview:     toOverviewDTO(d.Overview),
		Distribution: toDistributionDTO(d.Distribution),
		Trend:        toTrendDTO(d.Trend),
		WeeklyFlow:   toWeeklyDTO(d.WeeklyFlow),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// pathID parses a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, *AppError) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrResourceNotFound
	}
	return id, nil
}
