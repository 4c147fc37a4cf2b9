// Package agents provides the person data model, the population generator,
// and per-tick consumer decisions.
package agents

import "fmt"

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Class is an agent's position in the economy.
type Class uint8

const (
	ClassBourgeois Class = iota
	ClassProletariat
)

func (c Class) String() string {
	switch c {
	case ClassBourgeois:
		return "Bourgeois"
	case ClassProletariat:
		return "Proletariat"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Income is an agent's wealth tier.
type Income uint8

const (
	IncomeLow Income = iota
	IncomeMiddle
	IncomeHigh
	IncomeVeryHigh
)

func (i Income) String() string {
	switch i {
	case IncomeLow:
		return "Low"
	case IncomeMiddle:
		return "Middle"
	case IncomeHigh:
		return "High"
	case IncomeVeryHigh:
		return "VeryHigh"
	}
	return fmt.Sprintf("Income(%d)", uint8(i))
}

// StartingMoney is the balance a new agent of this tier opens with.
func (i Income) StartingMoney() float64 {
	switch i {
	case IncomeMiddle:
		return 50
	case IncomeHigh:
		return 100
	case IncomeVeryHigh:
		return 1500
	default:
		return 10
	}
}

// FoodDemand is the units of food a Proletariat agent of this tier buys per tick.
func (i Income) FoodDemand() int64 {
	return int64(i) + 1
}

// Person is the core entity representing an economic agent.
type Person struct {
	ID     AgentID `json:"id" db:"id"`
	Class  Class   `json:"class" db:"class"`
	Income Income  `json:"income" db:"income"`
	Money  float64 `json:"money" db:"money"` // Written only by settlement
}

// Population is the agent arena, indexed by ID.
type Population struct {
	People []*Person
	index  map[AgentID]*Person
}

// NewPopulation builds the ID index over people.
func NewPopulation(people []*Person) *Population {
	idx := make(map[AgentID]*Person, len(people))
	for _, p := range people {
		idx[p.ID] = p
	}
	return &Population{People: people, index: idx}
}

// Get returns the person with the given ID.
func (p *Population) Get(id AgentID) (*Person, bool) {
	a, ok := p.index[id]
	return a, ok
}

// Len returns the population size.
func (p *Population) Len() int {
	return len(p.People)
}

// Money implements economy.Accounts.
func (p *Population) Money(owner uint64) (float64, bool) {
	a, ok := p.index[AgentID(owner)]
	if !ok {
		return 0, false
	}
	return a.Money, true
}

// AddMoney implements economy.Accounts.
func (p *Population) AddMoney(owner uint64, delta float64) {
	if a, ok := p.index[AgentID(owner)]; ok {
		a.Money += delta
	}
}

// Stats summarizes the population.
type Stats struct {
	Total       int                `json:"total"`
	Bourgeois   int                `json:"bourgeois"`
	Proletariat int                `json:"proletariat"`
	ByIncome    map[string]int     `json:"by_income"`
	TotalMoney  float64            `json:"total_money"`
	MoneyByTier map[string]float64 `json:"money_by_tier"`
}

// Summarize computes class and income counts and money totals.
func (p *Population) Summarize() Stats {
	st := Stats{
		Total:       len(p.People),
		ByIncome:    make(map[string]int, 4),
		MoneyByTier: make(map[string]float64, 4),
	}
	for _, a := range p.People {
		if a.Class == ClassBourgeois {
			st.Bourgeois++
		} else {
			st.Proletariat++
		}
		st.ByIncome[a.Income.String()]++
		st.MoneyByTier[a.Income.String()] += a.Money
		st.TotalMoney += a.Money
	}
	return st
}
