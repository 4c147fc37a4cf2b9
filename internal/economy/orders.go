package economy

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrInvalidOrder is returned for orders with a non-positive amount, a
// negative price, or an unknown good.
var ErrInvalidOrder = errors.New("invalid order")

// OrderType distinguishes consumer orders from facility orders.
type OrderType uint8

const (
	OrderPerson OrderType = iota
	OrderProduction
)

func (t OrderType) String() string {
	if t == OrderProduction {
		return "Production"
	}
	return "Person"
}

// order is the shared body of buy and sell orders. Fields are set once by
// the constructors and only read afterwards.
type order struct {
	good   GoodsType
	amount int64
	price  float64
	kind   OrderType
	owner  uint64
}

func newOrder(good GoodsType, amount int64, price float64, kind OrderType, owner uint64) (order, error) {
	if !good.Valid() {
		return order{}, fmt.Errorf("%w: %s", ErrInvalidOrder, good)
	}
	if amount <= 0 {
		return order{}, fmt.Errorf("%w: amount %d", ErrInvalidOrder, amount)
	}
	if price < 0 || math.IsNaN(price) {
		return order{}, fmt.Errorf("%w: price %v", ErrInvalidOrder, price)
	}
	return order{good: good, amount: amount, price: price, kind: kind, owner: owner}, nil
}

func (o order) Good() GoodsType { return o.good }
func (o order) Amount() int64   { return o.amount }
func (o order) Price() float64  { return o.price }
func (o order) Type() OrderType { return o.kind }
func (o order) Owner() uint64   { return o.owner }

// BuyOrder is a request to buy Amount units of Good at up to Price.
type BuyOrder struct{ order }

// SellOrder offers Amount units of Good at Price.
type SellOrder struct{ order }

// NewBuyOrder validates and creates a buy order.
func NewBuyOrder(good GoodsType, amount int64, price float64, kind OrderType, owner uint64) (BuyOrder, error) {
	o, err := newOrder(good, amount, price, kind, owner)
	return BuyOrder{o}, err
}

// NewSellOrder validates and creates a sell order.
func NewSellOrder(good GoodsType, amount int64, price float64, kind OrderType, owner uint64) (SellOrder, error) {
	o, err := newOrder(good, amount, price, kind, owner)
	return SellOrder{o}, err
}

// OrderBook is the per-tick, append-only order buffer. Agents append during
// the decision pass; the market pass drains it.
type OrderBook struct {
	mu    sync.Mutex
	buys  []BuyOrder
	sells []SellOrder
}

// AddBuys appends buy orders. Safe for concurrent use.
func (b *OrderBook) AddBuys(orders ...BuyOrder) {
	if len(orders) == 0 {
		return
	}
	b.mu.Lock()
	b.buys = append(b.buys, orders...)
	b.mu.Unlock()
}

// AddSells appends sell orders. Safe for concurrent use.
func (b *OrderBook) AddSells(orders ...SellOrder) {
	if len(orders) == 0 {
		return
	}
	b.mu.Lock()
	b.sells = append(b.sells, orders...)
	b.mu.Unlock()
}

// Len returns the number of live orders.
func (b *OrderBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buys) + len(b.sells)
}

// Drain removes and returns every live order, leaving the book empty.
func (b *OrderBook) Drain() ([]BuyOrder, []SellOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buys, sells := b.buys, b.sells
	b.buys, b.sells = nil, nil
	return buys, sells
}
