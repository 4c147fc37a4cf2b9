package economy

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientFunds marks a fill the buyer could not pay for.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrUnknownAccount marks an order whose owner has no account.
var ErrUnknownAccount = errors.New("unknown account")

// ClearingConfig controls how prices respond to imbalance.
type ClearingConfig struct {
	// Step is the relative price move at total imbalance (all demand, no
	// supply or the reverse). Must be in (0, 1].
	Step float64
	// MinPrice is the price floor.
	MinPrice float64
	// MaxPrice is the price ceiling. Goods with demand and no supply
	// settle here instead of growing without bound.
	MaxPrice float64
}

// DefaultMaxPriceMultiple scales the starting price into the default ceiling.
const DefaultMaxPriceMultiple = 1000

// DefaultClearingConfig moves prices by at most 5% per tick, within
// [0.01, 1000x starting price].
func DefaultClearingConfig() ClearingConfig {
	return ClearingConfig{
		Step:     0.05,
		MinPrice: 0.01,
		MaxPrice: DefaultMaxPriceMultiple * GoodFood.StartingPrice(),
	}
}

// Validate checks the config bounds.
func (c ClearingConfig) Validate() error {
	if !(c.Step > 0 && c.Step <= 1) {
		return fmt.Errorf("clearing step %v out of range (0, 1]", c.Step)
	}
	if c.MinPrice < 0 || math.IsNaN(c.MinPrice) || math.IsInf(c.MinPrice, 0) {
		return fmt.Errorf("min price %v must be finite and >= 0", c.MinPrice)
	}
	if !(c.MaxPrice > c.MinPrice) || math.IsInf(c.MaxPrice, 0) {
		return fmt.Errorf("max price %v must be finite and above min price %v", c.MaxPrice, c.MinPrice)
	}
	return nil
}

// Clearing is the outcome of matching one good in one tick.
type Clearing struct {
	Good     GoodsType `json:"good"`
	Demand   int64     `json:"demand"`
	Supply   int64     `json:"supply"`
	Cleared  int64     `json:"cleared"`
	Price    float64   `json:"price"`     // Price the matched quantity trades at
	NewPrice float64   `json:"new_price"` // Book price after the imbalance nudge
}

// ClearGood matches demand against supply at the current book price and
// computes the next price. The matched quantity is min(demand, supply).
// When the two differ the price moves by Step scaled by the imbalance ratio
// (demand-supply)/max(demand, supply), clamped to [MinPrice, MaxPrice].
func ClearGood(good GoodsType, demand, supply int64, current float64, cfg ClearingConfig) (Clearing, error) {
	if err := checkPrice(good, current); err != nil {
		return Clearing{}, fmt.Errorf("book price: %w", err)
	}
	if demand < 0 || supply < 0 {
		return Clearing{}, fmt.Errorf("%w: %s demand %d supply %d", ErrInvalidOrder, good, demand, supply)
	}

	c := Clearing{
		Good:     good,
		Demand:   demand,
		Supply:   supply,
		Cleared:  min(demand, supply),
		Price:    current,
		NewPrice: current,
	}

	if demand != supply {
		imbalance := float64(demand-supply) / float64(max(demand, supply))
		c.NewPrice = current * (1 + cfg.Step*imbalance)
	}
	c.NewPrice = min(max(c.NewPrice, cfg.MinPrice), cfg.MaxPrice)
	if err := checkPrice(good, c.NewPrice); err != nil {
		return Clearing{}, fmt.Errorf("next price: %w", err)
	}
	return c, nil
}

// Filler is an order that can receive part of a cleared quantity.
type Filler interface {
	Amount() int64
	Owner() uint64
}

// Allocate splits cleared units across orders pro rata to their amounts.
// Leftover units go to the largest fractional remainders, ties broken by
// owner then amount, so the split does not depend on the order of the slice.
// The result is aligned with orders.
func Allocate[O Filler](orders []O, cleared int64) []int64 {
	fills := make([]int64, len(orders))
	if cleared <= 0 || len(orders) == 0 {
		return fills
	}

	var total int64
	for _, o := range orders {
		total += o.Amount()
	}
	if cleared >= total {
		for i, o := range orders {
			fills[i] = o.Amount()
		}
		return fills
	}

	rems := make([]int64, len(orders))
	var given int64
	for i, o := range orders {
		q := o.Amount() * cleared
		fills[i] = q / total
		rems[i] = q % total
		given += fills[i]
	}

	idx := rankedIndex(orders, func(a, b int) bool {
		if rems[a] != rems[b] {
			return rems[a] > rems[b]
		}
		return false
	})
	for _, i := range idx {
		if given == cleared {
			break
		}
		fills[i]++
		given++
	}
	return fills
}

// rankedIndex returns indices of orders sorted by less, falling back to
// owner ascending then amount descending.
func rankedIndex[O Filler](orders []O, less func(a, b int) bool) []int {
	idx := make([]int, len(orders))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := idx[x], idx[y]
		if less != nil {
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		}
		if orders[a].Owner() != orders[b].Owner() {
			return orders[a].Owner() < orders[b].Owner()
		}
		return orders[a].Amount() > orders[b].Amount()
	})
	return idx
}

// Accounts is the money ledger settlement draws on.
type Accounts interface {
	Money(owner uint64) (float64, bool)
	AddMoney(owner uint64, delta float64)
}

// SettlementError records a fill that could not be settled.
type SettlementError struct {
	Owner   uint64    `json:"owner"`
	Good    GoodsType `json:"good"`
	Amount  int64     `json:"amount"`
	Cost    float64   `json:"cost"`
	Balance float64   `json:"balance"`
	Err     error     `json:"-"`
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settle %d %s for owner %d (cost %.2f, balance %.2f): %v",
		e.Amount, e.Good, e.Owner, e.Cost, e.Balance, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Settlement is the money movement for one good in one tick.
type Settlement struct {
	Good     GoodsType          `json:"good"`
	Traded   int64              `json:"traded"`
	Value    float64            `json:"value"`
	Rejected []*SettlementError `json:"rejected,omitempty"`
}

// Settle moves money for the cleared quantity of one good. Sell orders whose
// owner has no account are rejected first and their units leave the match.
// Buyers then pay in owner order; a fill that would overdraw its buyer is
// rejected and the sellers are allocated only what was paid for. Balances
// never go negative and money is conserved.
func Settle(c Clearing, buys []BuyOrder, sells []SellOrder, acct Accounts) Settlement {
	st := Settlement{Good: c.Good}
	if c.Cleared <= 0 {
		return st
	}

	payable := make([]SellOrder, 0, len(sells))
	var offered int64
	for _, i := range rankedIndex(sells, nil) {
		o := sells[i]
		if _, ok := acct.Money(o.Owner()); !ok {
			st.Rejected = append(st.Rejected, &SettlementError{
				Owner: o.Owner(), Good: c.Good, Amount: o.Amount(), Err: ErrUnknownAccount,
			})
			continue
		}
		payable = append(payable, o)
		offered += o.Amount()
	}
	sells = payable

	fills := Allocate(buys, min(c.Cleared, offered))
	for _, i := range rankedIndex(buys, nil) {
		fill := fills[i]
		if fill == 0 {
			continue
		}
		owner := buys[i].Owner()
		cost := float64(fill) * c.Price
		bal, ok := acct.Money(owner)
		if !ok {
			st.Rejected = append(st.Rejected, &SettlementError{
				Owner: owner, Good: c.Good, Amount: fill, Cost: cost, Err: ErrUnknownAccount,
			})
			continue
		}
		if bal-cost < 0 {
			st.Rejected = append(st.Rejected, &SettlementError{
				Owner: owner, Good: c.Good, Amount: fill, Cost: cost, Balance: bal, Err: ErrInsufficientFunds,
			})
			continue
		}
		acct.AddMoney(owner, -cost)
		st.Traded += fill
	}

	sellFills := Allocate(sells, st.Traded)
	for _, i := range rankedIndex(sells, nil) {
		if sellFills[i] == 0 {
			continue
		}
		acct.AddMoney(sells[i].Owner(), float64(sellFills[i])*c.Price)
	}
	st.Value = float64(st.Traded) * c.Price
	return st
}
