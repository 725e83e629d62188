package analytics

import (
	"context"
	"time"

	"github.com/josh-kwaku/khata/internal/clock"
	"github.com/josh-kwaku/khata/internal/stream"
)

// DayTicker publishes the current time once on start and again at every
// local midnight, so day-windowed results roll over without a data change.
type DayTicker struct {
	clock clock.Clock
	loc   *time.Location
	after func(time.Duration) <-chan time.Time
	subj  *stream.Subject[time.Time]
}

func NewDayTicker(clk clock.Clock, loc *time.Location) *DayTicker {
	if loc == nil {
		loc = time.Local
	}
	return &DayTicker{
		clock: clk,
		loc:   loc,
		after: time.After,
		subj:  stream.NewSubject[time.Time](),
	}
}

// Start publishes the first tick synchronously and keeps ticking until ctx ends.
func (d *DayTicker) Start(ctx context.Context) {
	now := d.clock.Now().In(d.loc)
	d.subj.Publish(now)

	go func() {
		defer d.subj.Close()
		for {
			wait := clock.NextMidnight(now).Sub(now)
			select {
			case <-ctx.Done():
				return
			case <-d.after(wait):
			}
			now = d.clock.Now().In(d.loc)
			d.subj.Publish(now)
		}
	}()
}

func (d *DayTicker) Subscribe(ctx context.Context) <-chan time.Time {
	return d.subj.Subscribe(ctx)
}
