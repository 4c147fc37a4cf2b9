// Consumer decisions: each tick, every agent turns its income tier and the
// current prices into buy orders.
package agents

import (
	"fmt"

	"github.com/talgya/mini-economy/internal/economy"
)

// PriceReader is the read-only view of the price book agents decide from.
type PriceReader interface {
	Price(g economy.GoodsType) (float64, error)
}

// Decide returns the buy orders a person places this tick.
// Proletariat agents buy Income.FoodDemand() units of food at the current
// food price. Bourgeois agents place no consumer orders.
func Decide(p *Person, prices PriceReader) ([]economy.BuyOrder, error) {
	switch p.Class {
	case ClassProletariat:
		price, err := prices.Price(economy.GoodFood)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", p.ID, err)
		}
		o, err := economy.NewBuyOrder(economy.GoodFood, p.Income.FoodDemand(), price, economy.OrderPerson, uint64(p.ID))
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", p.ID, err)
		}
		return []economy.BuyOrder{o}, nil
	case ClassBourgeois:
		// Investment and luxury consumption are not modelled yet; their
		// market presence comes from the facilities they own.
		return nil, nil
	}
	return nil, fmt.Errorf("agent %d: unknown class %s", p.ID, p.Class)
}
