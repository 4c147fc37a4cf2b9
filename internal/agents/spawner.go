// Agent spawning: creates the initial population with class, income tier
// and starting money.
package agents

import "math/rand"

// DrawClass draws a class: 20% Bourgeois, 80% Proletariat.
func DrawClass(rng *rand.Rand) Class {
	switch rng.Intn(10) {
	case 0, 1:
		return ClassBourgeois
	default:
		return ClassProletariat
	}
}

// DrawIncome draws a Proletariat income tier over 0..99:
// 0–70 Low, 71–90 Middle, 91–98 High, 99 VeryHigh.
func DrawIncome(rng *rand.Rand) Income {
	r := rng.Intn(100)
	switch {
	case r <= 70:
		return IncomeLow
	case r <= 90:
		return IncomeMiddle
	case r <= 98:
		return IncomeHigh
	default:
		return IncomeVeryHigh
	}
}

// NewPerson builds an agent of the given class. Bourgeois agents always
// hold VeryHigh income regardless of the drawn tier.
func NewPerson(id AgentID, class Class, drawn Income) *Person {
	income := drawn
	if class == ClassBourgeois {
		income = IncomeVeryHigh
	}
	return &Person{
		ID:     id,
		Class:  class,
		Income: income,
		Money:  income.StartingMoney(),
	}
}

// Generate creates n agents with IDs 0..n-1. Both a class and an income are
// drawn for every agent so the random stream advances identically.
func Generate(n int, rng *rand.Rand) []*Person {
	if n <= 0 {
		return []*Person{}
	}
	people := make([]*Person, 0, n)
	for i := 0; i < n; i++ {
		class := DrawClass(rng)
		income := DrawIncome(rng)
		people = append(people, NewPerson(AgentID(i), class, income))
	}
	return people
}

// Spawner creates agents for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// NextID is the ID the next spawned agent will get.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// SpawnPopulation creates count agents with consecutive IDs.
func (s *Spawner) SpawnPopulation(count int) []*Person {
	if s.nextID == 0 {
		people := Generate(count, s.rng)
		s.nextID = AgentID(len(people))
		return people
	}
	people := make([]*Person, 0, max(count, 0))
	for i := 0; i < count; i++ {
		class := DrawClass(s.rng)
		income := DrawIncome(s.rng)
		people = append(people, NewPerson(s.nextID, class, income))
		s.nextID++
	}
	return people
}

// Rand exposes the spawner's random source for seeded follow-up draws.
func (s *Spawner) Rand() *rand.Rand {
	return s.rng
}
