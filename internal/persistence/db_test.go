package persistence

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/industry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "economy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadState(t *testing.T) {
	db := openTestDB(t)
	assert.False(t, db.HasState())

	people := agents.Generate(200, rand.New(rand.NewSource(3)))
	facilities := industry.Assign(people, 1, 4)
	sim, err := engine.NewSimulation(agents.NewPopulation(people), industry.New(3, facilities), engine.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, sim.Tick(1))

	require.NoError(t, db.SaveState(sim))
	assert.True(t, db.HasState())

	loaded, err := db.LoadPeople()
	require.NoError(t, err)
	require.Len(t, loaded, len(people))
	for i, p := range loaded {
		assert.Equal(t, *people[i], *p)
	}

	loadedFacilities, err := db.LoadFacilities()
	require.NoError(t, err)
	assert.Equal(t, facilities, loadedFacilities)

	book := economy.NewPriceBook()
	require.NoError(t, db.LoadPrices(book))
	assert.Equal(t, sim.Prices.Records(), book.Records())

	tick, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "1", tick)

	runID, err := db.GetMeta("run_id")
	require.NoError(t, err)
	assert.Equal(t, sim.RunID.String(), runID)
}

func TestGetMetaMissing(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMeta("nope")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestReportSinkHistory(t *testing.T) {
	db := openTestDB(t)
	for tick := uint64(1); tick <= 3; tick++ {
		err := db.Report(&engine.TickReport{
			RunID: "run",
			Tick:  tick,
			Goods: []engine.GoodReport{
				{Good: economy.GoodFood, Demand: int64(10 * tick), BidPrice: 1, Price: 1, NewPrice: 1.05},
				{Good: economy.GoodSteel, Demand: 1, Supply: 2, Cleared: 1, Traded: 1, Price: 1, NewPrice: 0.975, Value: 1},
			},
		})
		require.NoError(t, err)
	}
	require.NoError(t, db.Report(&engine.TickReport{Tick: 4}))

	rows, err := db.PriceHistory(economy.GoodFood, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(30), rows[0].Demand, "newest first")
	assert.Equal(t, int64(20), rows[1].Demand)
	assert.Equal(t, economy.GoodFood, rows[0].Good)

	steel, err := db.PriceHistory(economy.GoodSteel, 10)
	require.NoError(t, err)
	assert.Len(t, steel, 3)
	assert.Equal(t, 0.975, steel[0].NewPrice)
}

func TestLoadFacilitiesRejectsUnknownKind(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveFacilities([]*industry.Facility{
		{ID: 1, Kind: economy.SawMill, Owner: 4, Capacity: 5},
		{ID: 2, Kind: economy.Production(200), Owner: 4, Capacity: 5},
	}))

	_, err := db.LoadFacilities()
	assert.ErrorContains(t, err, "facility 2")
}
