// Simulation ties together the population, facilities, orders and prices,
// and runs the two passes of every tick.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/industry"
)

// Options tune market behavior and parallelism.
type Options struct {
	Policy   economy.PricePolicy
	Clearing economy.ClearingConfig
	Workers  int // Decision-pass goroutines; <= 0 means GOMAXPROCS
}

// DefaultOptions returns volume-weighted aggregation with default clearing.
func DefaultOptions() Options {
	return Options{
		Policy:   economy.PriceVolumeWeighted,
		Clearing: economy.DefaultClearingConfig(),
	}
}

// Simulation holds the complete economy state.
type Simulation struct {
	RunID      uuid.UUID
	Population *agents.Population
	Industry   *industry.Industry
	Prices     *economy.PriceBook
	Orders     *economy.OrderBook
	Sinks      []ReportSink

	opts Options

	// Guards agent money, LastTick, lastReport and Stats against readers
	// outside the tick goroutine.
	mu         sync.RWMutex
	LastTick   uint64
	lastReport *TickReport
	Stats      SimStats
}

// SimStats tracks aggregate population statistics.
type SimStats struct {
	Population  int     `json:"population"`
	Bourgeois   int     `json:"bourgeois"`
	Proletariat int     `json:"proletariat"`
	Facilities  int     `json:"facilities"`
	TotalMoney  float64 `json:"total_money"`
}

// NewSimulation creates a Simulation with a fresh price book.
func NewSimulation(pop *agents.Population, ind *industry.Industry, opts Options) (*Simulation, error) {
	if err := opts.Clearing.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if ind == nil {
		ind = industry.New(0, nil)
	}
	sim := &Simulation{
		RunID:      uuid.New(),
		Population: pop,
		Industry:   ind,
		Prices:     economy.NewPriceBook(),
		Orders:     &economy.OrderBook{},
		opts:       opts,
	}
	sim.updateStats()
	return sim, nil
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// LastReport returns the report of the most recent tick, or nil.
func (s *Simulation) LastReport() *TickReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// Snapshot returns the current stats.
func (s *Simulation) Snapshot() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// Person returns a copy of one agent.
func (s *Simulation) Person(id agents.AgentID) (agents.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Population.Get(id)
	if !ok {
		return agents.Person{}, false
	}
	return *p, true
}

// PeopleSnapshot returns copies of every agent, safe to use while ticks run.
func (s *Simulation) PeopleSnapshot() []*agents.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*agents.Person, len(s.Population.People))
	for i, p := range s.Population.People {
		cp := *p
		out[i] = &cp
	}
	return out
}

// Summarize returns population statistics under the read lock.
func (s *Simulation) Summarize() agents.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Population.Summarize()
}

// Tick runs one tick: the decision pass, then the market pass once every
// decision is in the order book.
func (s *Simulation) Tick(tick uint64) error {
	if err := s.decide(tick); err != nil {
		return fmt.Errorf("decision pass: %w", err)
	}

	report, err := s.market(tick)
	if err != nil {
		return fmt.Errorf("market pass: %w", err)
	}

	s.mu.Lock()
	s.LastTick = tick
	s.lastReport = report
	s.updateStatsLocked()
	s.mu.Unlock()

	for _, sink := range s.Sinks {
		if err := sink.Report(report); err != nil {
			slog.Warn("report sink failed", "tick", tick, "error", err)
		}
	}
	return nil
}

// decide evaluates every agent and facility in parallel. Agents only read
// the price book and append to the order book.
func (s *Simulation) decide(tick uint64) error {
	people := s.Population.People
	workers := s.opts.Workers
	chunk := (len(people) + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}

	var g errgroup.Group
	g.SetLimit(workers + 1)

	for start := 0; start < len(people); start += chunk {
		batch := people[start:min(start+chunk, len(people))]
		g.Go(func() error {
			var buys []economy.BuyOrder
			for _, p := range batch {
				orders, err := agents.Decide(p, s.Prices)
				if err != nil {
					return err
				}
				buys = append(buys, orders...)
			}
			s.Orders.AddBuys(buys...)
			return nil
		})
	}

	g.Go(func() error {
		for _, f := range s.Industry.Facilities {
			buys, sells, err := s.Industry.Orders(f, tick, s.Prices)
			if err != nil {
				return err
			}
			s.Orders.AddBuys(buys...)
			s.Orders.AddSells(sells...)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		// Orders from a failed pass must not leak into the next tick.
		s.Orders.Drain()
		return err
	}
	return nil
}

func (s *Simulation) updateStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStatsLocked()
}

func (s *Simulation) updateStatsLocked() {
	st := SimStats{
		Population: s.Population.Len(),
		Facilities: len(s.Industry.Facilities),
	}
	for _, p := range s.Population.People {
		if p.Class == agents.ClassBourgeois {
			st.Bourgeois++
		} else {
			st.Proletariat++
		}
		st.TotalMoney += p.Money
	}
	s.Stats = st
}
