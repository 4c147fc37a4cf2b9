package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-economy/internal/economy"
)

// GoodReport is the per-good outcome of one tick.
type GoodReport struct {
	Good     economy.GoodsType `json:"good" db:"good"`
	Demand   int64             `json:"demand" db:"demand"`       // Summed buy amount
	BidPrice float64           `json:"bid_price" db:"bid_price"` // Aggregated buy price
	Supply   int64             `json:"supply" db:"supply"`
	Cleared  int64             `json:"cleared" db:"cleared"`
	Traded   int64             `json:"traded" db:"traded"` // Cleared minus rejected fills
	Price    float64           `json:"price" db:"price"`   // Clearing price
	NewPrice float64           `json:"new_price" db:"new_price"`
	Value    float64           `json:"value" db:"value"`
	Rejected int               `json:"rejected" db:"rejected"`
}

// TickReport is emitted once per tick after clearing.
type TickReport struct {
	RunID     string                     `json:"run_id"`
	Tick      uint64                     `json:"tick"`
	Goods     []GoodReport               `json:"goods"`
	Rejected  []*economy.SettlementError `json:"rejected,omitempty"`
	Discarded int                        `json:"discarded"` // Orders retired this tick
}

// Good returns the report line for g, if g traded this tick.
func (r *TickReport) Good(g economy.GoodsType) (GoodReport, bool) {
	for _, gr := range r.Goods {
		if gr.Good == g {
			return gr, true
		}
	}
	return GoodReport{}, false
}

// ReportSink receives every tick report.
type ReportSink interface {
	Report(r *TickReport) error
}

// ReportFunc adapts a function to ReportSink.
type ReportFunc func(r *TickReport) error

func (f ReportFunc) Report(r *TickReport) error { return f(r) }

// LogSink logs one record per traded good.
type LogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

func (l LogSink) Report(r *TickReport) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, g := range r.Goods {
		logger.Log(context.Background(), l.Level, "market",
			"tick", r.Tick,
			"good", g.Good.String(),
			"demand", humanize.Comma(g.Demand),
			"supply", humanize.Comma(g.Supply),
			"traded", humanize.Comma(g.Traded),
			"price", fmt.Sprintf("%.4f", g.Price),
			"new_price", fmt.Sprintf("%.4f", g.NewPrice),
		)
	}
	if len(r.Rejected) > 0 {
		logger.Log(context.Background(), slog.LevelWarn, "settlement rejections",
			"tick", r.Tick,
			"count", len(r.Rejected),
			"first", r.Rejected[0].Error(),
		)
	}
	return nil
}

// AsyncSink hands reports to a background writer so slow sinks such as the
// database never block the tick loop. Reports are dropped when the buffer
// is full.
type AsyncSink struct {
	next ReportSink
	ch   chan *TickReport
	wg   sync.WaitGroup

	mu      sync.Mutex
	dropped int
	closed  bool
}

// NewAsyncSink starts the background writer.
func NewAsyncSink(next ReportSink, buffer int) *AsyncSink {
	a := &AsyncSink{next: next, ch: make(chan *TickReport, buffer)}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for r := range a.ch {
			if err := a.next.Report(r); err != nil {
				slog.Error("async report sink failed", "tick", r.Tick, "error", err)
			}
		}
	}()
	return a
}

func (a *AsyncSink) Report(r *TickReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("report sink closed")
	}
	select {
	case a.ch <- r:
		return nil
	default:
		a.dropped++
		return fmt.Errorf("report buffer full, dropped tick %d (%d total)", r.Tick, a.dropped)
	}
}

// Close flushes pending reports and stops the writer.
func (a *AsyncSink) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
}
