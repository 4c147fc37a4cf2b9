package industry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
)

func TestAssignRoundRobinToBourgeois(t *testing.T) {
	people := []*agents.Person{
		agents.NewPerson(0, agents.ClassProletariat, agents.IncomeLow),
		agents.NewPerson(5, agents.ClassBourgeois, agents.IncomeLow),
		agents.NewPerson(2, agents.ClassBourgeois, agents.IncomeLow),
	}
	fs := Assign(people, 2, 10)
	require.Len(t, fs, 2*economy.NumProductions)

	seen := make(map[uint64]bool)
	for i, f := range fs {
		assert.False(t, seen[f.ID], "duplicate facility id %d", f.ID)
		seen[f.ID] = true
		assert.Equal(t, int64(10), f.Capacity)
		assert.NotEqual(t, agents.AgentID(0), f.Owner, "proletariat own nothing")
		if i%2 == 0 {
			assert.Equal(t, agents.AgentID(2), f.Owner)
		} else {
			assert.Equal(t, agents.AgentID(5), f.Owner)
		}
	}
	assert.Equal(t, economy.SteelMill, fs[0].Kind)
	assert.Equal(t, economy.CottonFarm, fs[len(fs)-1].Kind)
}

func TestAssignWithoutOwners(t *testing.T) {
	people := []*agents.Person{agents.NewPerson(0, agents.ClassProletariat, agents.IncomeLow)}
	assert.Empty(t, Assign(people, 1, 10))
	assert.Empty(t, Assign(nil, 1, 10))
}

func TestOutputBounds(t *testing.T) {
	in := New(42, nil)
	f := &Facility{ID: 3, Kind: economy.SawMill, Capacity: 20}
	for tick := uint64(0); tick < 500; tick++ {
		out := in.Output(f, tick)
		assert.GreaterOrEqual(t, out, int64(10))
		assert.LessOrEqual(t, out, int64(30))
	}
	assert.Equal(t, in.Output(f, 17), New(42, nil).Output(f, 17), "same seed, same field")

	tiny := &Facility{ID: 1, Kind: economy.House, Capacity: 1}
	assert.GreaterOrEqual(t, in.Output(tiny, 3), int64(1))
}

func TestOrdersFollowRecipe(t *testing.T) {
	in := New(1, nil)
	book := economy.NewPriceBook()
	require.NoError(t, book.Set(economy.GoodWeapon, 3))
	f := &Facility{ID: 9, Kind: economy.WeaponFactory, Owner: 4, Capacity: 5}

	buys, sells, err := in.Orders(f, 10, book)
	require.NoError(t, err)

	units := in.Output(f, 10)
	require.Len(t, sells, 1)
	assert.Equal(t, economy.GoodWeapon, sells[0].Good())
	assert.Equal(t, units, sells[0].Amount())
	assert.Equal(t, 3.0, sells[0].Price())
	assert.Equal(t, economy.OrderProduction, sells[0].Type())
	assert.Equal(t, uint64(4), sells[0].Owner())

	var inputs []economy.GoodsType
	for _, b := range buys {
		inputs = append(inputs, b.Good())
		assert.Equal(t, units, b.Amount())
		assert.Equal(t, economy.OrderProduction, b.Type())
	}
	assert.ElementsMatch(t, economy.WeaponFactory.Input(), inputs)
}

func TestHouseHasNoInputOrders(t *testing.T) {
	in := New(1, nil)
	buys, sells, err := in.Orders(&Facility{ID: 1, Kind: economy.House, Owner: 1, Capacity: 2}, 1, economy.NewPriceBook())
	require.NoError(t, err)
	assert.Empty(t, buys)
	assert.Len(t, sells, 1)
	assert.Equal(t, economy.GoodRent, sells[0].Good())
}

func TestByOwner(t *testing.T) {
	in := New(1, []*Facility{{ID: 1, Owner: 2}, {ID: 2, Owner: 3}, {ID: 3, Owner: 2}})
	assert.Len(t, in.ByOwner(2), 2)
	assert.Empty(t, in.ByOwner(7))
}
