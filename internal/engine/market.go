// Market resolution: per-tick aggregation, clearing and settlement.
package engine

import (
	"golang.org/x/sync/errgroup"

	"github.com/talgya/mini-economy/internal/economy"
)

// market drains the tick's orders, clears every good that saw orders, and
// settles matched quantities. Every order is discarded, matched or not.
func (s *Simulation) market(tick uint64) (*TickReport, error) {
	buys, sells := s.Orders.Drain()

	sums := economy.AggregateBuys(buys, s.opts.Policy)
	supply := economy.AggregateSells(sells)

	var buysBy [economy.NumGoods][]economy.BuyOrder
	var sellsBy [economy.NumGoods][]economy.SellOrder
	for _, o := range buys {
		buysBy[o.Good()] = append(buysBy[o.Good()], o)
	}
	for _, o := range sells {
		sellsBy[o.Good()] = append(sellsBy[o.Good()], o)
	}

	var traded []economy.GoodsType
	for _, g := range economy.AllGoods() {
		if len(buysBy[g]) > 0 || len(sellsBy[g]) > 0 {
			traded = append(traded, g)
		}
	}

	// Goods are independent: clear them in parallel. The book is only read
	// here; new prices are written once every good has cleared, so a failed
	// tick leaves every price as it was.
	clearings := make([]economy.Clearing, len(traded))
	var g errgroup.Group
	for i, good := range traded {
		g.Go(func() error {
			current, err := s.Prices.Price(good)
			if err != nil {
				return err
			}
			c, err := economy.ClearGood(good, sums[good].Amount, supply[good], current, s.opts.Clearing)
			if err != nil {
				return err
			}
			clearings[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, c := range clearings {
		if err := s.Prices.Set(c.Good, c.NewPrice); err != nil {
			return nil, err
		}
	}

	report := &TickReport{
		RunID:     s.RunID.String(),
		Tick:      tick,
		Discarded: len(buys) + len(sells),
	}

	// Settlement touches agent money across goods, so it runs serially in
	// catalogue order.
	s.mu.Lock()
	for i, c := range clearings {
		good := traded[i]
		st := economy.Settle(c, buysBy[good], sellsBy[good], s.Population)
		report.Goods = append(report.Goods, GoodReport{
			Good:     good,
			Demand:   sums[good].Amount,
			BidPrice: sums[good].Price,
			Supply:   c.Supply,
			Cleared:  c.Cleared,
			Traded:   st.Traded,
			Price:    c.Price,
			NewPrice: c.NewPrice,
			Value:    st.Value,
			Rejected: len(st.Rejected),
		})
		report.Rejected = append(report.Rejected, st.Rejected...)
	}
	s.mu.Unlock()

	return report, nil
}
