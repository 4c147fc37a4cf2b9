package economy

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrMissingPrice means a good has no live price record. The book holds
	// one record per good, so this is an invariant violation.
	ErrMissingPrice = errors.New("missing price")

	// ErrNegativePrice is returned when a price update would go below zero.
	ErrNegativePrice = errors.New("negative price")

	// ErrNonFinitePrice is returned for NaN or infinite prices.
	ErrNonFinitePrice = errors.New("non-finite price")
)

// Price is the live market price of one good.
type Price struct {
	Good  GoodsType `json:"good" db:"good"`
	Price float64   `json:"price" db:"price"`
}

// PriceBook holds exactly one price per good, indexed by GoodsType.
// Readers may run concurrently; each good has a single writer per tick.
type PriceBook struct {
	mu     sync.RWMutex
	prices [NumGoods]float64
}

// NewPriceBook creates a book with every good at its starting price.
func NewPriceBook() *PriceBook {
	b := &PriceBook{}
	for _, g := range AllGoods() {
		b.prices[g] = g.StartingPrice()
	}
	return b
}

// Price returns the current price of g.
func (b *PriceBook) Price(g GoodsType) (float64, error) {
	if !g.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrMissingPrice, g)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prices[g], nil
}

// Set replaces the price of g.
func (b *PriceBook) Set(g GoodsType, price float64) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %s", ErrMissingPrice, g)
	}
	if err := checkPrice(g, price); err != nil {
		return err
	}
	b.mu.Lock()
	b.prices[g] = price
	b.mu.Unlock()
	return nil
}

// Records returns one Price per good in catalogue order.
func (b *PriceBook) Records() []Price {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Price, NumGoods)
	for i, p := range b.prices {
		out[i] = Price{Good: GoodsType(i), Price: p}
	}
	return out
}

// Len is the number of price records, always NumGoods.
func (b *PriceBook) Len() int {
	return len(b.prices)
}

func checkPrice(g GoodsType, price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: %s at %v", ErrNonFinitePrice, g, price)
	}
	if price < 0 {
		return fmt.Errorf("%w: %s at %v", ErrNegativePrice, g, price)
	}
	return nil
}
