// Package industry provides owned production facilities. Each tick a
// facility offers its output and bids for its recipe inputs.
package industry

import (
	"fmt"
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
)

// Facility is one production instance of a recipe kind.
type Facility struct {
	ID       uint64             `json:"id" db:"id"`
	Kind     economy.Production `json:"kind" db:"kind"`
	Owner    agents.AgentID     `json:"owner" db:"owner"`
	Capacity int64              `json:"capacity" db:"capacity"` // Mean units per tick
}

// Industry holds every facility plus the productivity field that scales
// their output over time.
type Industry struct {
	Facilities []*Facility
	noise      opensimplex.Noise
}

// New creates an industry over the given facilities. The seed fixes the
// productivity field.
func New(seed int64, facilities []*Facility) *Industry {
	return &Industry{
		Facilities: facilities,
		noise:      opensimplex.NewNormalized(seed + 500),
	}
}

// Assign gives perKind facilities of every kind to Bourgeois owners,
// round-robin in ID order. No owners means no facilities.
func Assign(people []*agents.Person, perKind int, capacity int64) []*Facility {
	var owners []agents.AgentID
	for _, p := range people {
		if p.Class == agents.ClassBourgeois {
			owners = append(owners, p.ID)
		}
	}
	if len(owners) == 0 || perKind <= 0 {
		return nil
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	var out []*Facility
	next := 0
	for _, kind := range economy.AllProductions() {
		for i := 0; i < perKind; i++ {
			out = append(out, &Facility{
				ID:       uint64(len(out) + 1),
				Kind:     kind,
				Owner:    owners[next%len(owners)],
				Capacity: capacity,
			})
			next++
		}
	}
	return out
}

// Output returns how many units f produces at tick: Capacity scaled by a
// factor in [0.5, 1.5] sampled from the productivity field, at least 1.
func (in *Industry) Output(f *Facility, tick uint64) int64 {
	x := float64(f.ID) * 0.37
	y := float64(tick) * 0.05
	factor := 0.5 + in.noise.Eval2(x, y)
	units := int64(math.Round(float64(f.Capacity) * factor))
	if units < 1 {
		units = 1
	}
	return units
}

// Orders returns f's orders for the tick: one sell order of its output and
// one buy order per recipe input, each for the produced quantity, all at
// current book prices.
func (in *Industry) Orders(f *Facility, tick uint64, prices agents.PriceReader) ([]economy.BuyOrder, []economy.SellOrder, error) {
	units := in.Output(f, tick)
	owner := uint64(f.Owner)

	outPrice, err := prices.Price(f.Kind.Output())
	if err != nil {
		return nil, nil, fmt.Errorf("facility %d: %w", f.ID, err)
	}
	sell, err := economy.NewSellOrder(f.Kind.Output(), units, outPrice, economy.OrderProduction, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("facility %d: %w", f.ID, err)
	}

	inputs := f.Kind.Input()
	buys := make([]economy.BuyOrder, 0, len(inputs))
	for _, g := range inputs {
		p, err := prices.Price(g)
		if err != nil {
			return nil, nil, fmt.Errorf("facility %d: %w", f.ID, err)
		}
		b, err := economy.NewBuyOrder(g, units, p, economy.OrderProduction, owner)
		if err != nil {
			return nil, nil, fmt.Errorf("facility %d: %w", f.ID, err)
		}
		buys = append(buys, b)
	}
	return buys, []economy.SellOrder{sell}, nil
}

// ByOwner groups facilities by owner.
func (in *Industry) ByOwner(owner agents.AgentID) []*Facility {
	var out []*Facility
	for _, f := range in.Facilities {
		if f.Owner == owner {
			out = append(out, f)
		}
	}
	return out
}
