package economy

import (
	"fmt"
	"sort"
	"strings"
)

// PricePolicy decides which price represents a group of buy orders.
type PricePolicy uint8

const (
	// PriceVolumeWeighted averages order prices weighted by amount.
	PriceVolumeWeighted PricePolicy = iota
	// PriceLast keeps the price of the last order folded into the group.
	PriceLast
	// PriceMax keeps the highest price in the group.
	PriceMax
)

func (p PricePolicy) String() string {
	switch p {
	case PriceLast:
		return "last"
	case PriceMax:
		return "max"
	default:
		return "vwap"
	}
}

// ParsePricePolicy maps "last", "max" or "vwap" to a policy.
func ParsePricePolicy(s string) (PricePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vwap":
		return PriceVolumeWeighted, nil
	case "last":
		return PriceLast, nil
	case "max":
		return PriceMax, nil
	}
	return 0, fmt.Errorf("unknown price policy %q", s)
}

// BuyOrderSum is the aggregate of one good's buy orders in a tick.
type BuyOrderSum struct {
	Good   GoodsType `json:"good"`
	Amount int64     `json:"amount"`
	Price  float64   `json:"price"`
}

// AggregateBuys groups orders by good and sums their amounts. Goods without
// orders are absent from the result. The volume-weighted price is summed over
// distinct prices in ascending order, so it is exact with respect to the
// order orders arrive in.
func AggregateBuys(orders []BuyOrder, policy PricePolicy) map[GoodsType]BuyOrderSum {
	sums := make(map[GoodsType]BuyOrderSum)
	var volume [NumGoods]map[float64]int64

	for _, o := range orders {
		g := o.Good()
		s := sums[g]
		s.Good = g
		s.Amount += o.Amount()
		switch policy {
		case PriceLast:
			s.Price = o.Price()
		case PriceMax:
			if o.Price() > s.Price {
				s.Price = o.Price()
			}
		default:
			if volume[g] == nil {
				volume[g] = make(map[float64]int64)
			}
			volume[g][o.Price()] += o.Amount()
		}
		sums[g] = s
	}

	if policy == PriceVolumeWeighted {
		for g, s := range sums {
			if s.Amount <= 0 {
				continue
			}
			s.Price = weightedPrice(volume[g]) / float64(s.Amount)
			sums[g] = s
		}
	}
	return sums
}

func weightedPrice(volume map[float64]int64) float64 {
	prices := make([]float64, 0, len(volume))
	for p := range volume {
		prices = append(prices, p)
	}
	sort.Float64s(prices)
	var notional float64
	for _, p := range prices {
		notional += p * float64(volume[p])
	}
	return notional
}

// AggregateSells returns the total offered amount per good.
func AggregateSells(orders []SellOrder) map[GoodsType]int64 {
	supply := make(map[GoodsType]int64)
	for _, o := range orders {
		supply[o.Good()] += o.Amount()
	}
	return supply
}
