package economy

import "fmt"

// Production enumerates facility kinds. Each kind has a fixed recipe.
type Production uint8

const (
	SteelMill Production = iota
	IronMine
	CoalMine
	CopperMine
	OilWell
	CarFactory
	ToolFactory
	WeaponFactory
	ClothesFactory
	FurnitureFactory
	WineFactory
	TobaccoFarm
	House
	SawMill
	CottonFarm
)

// NumProductions is the total number of facility kinds.
const NumProductions = 15

type recipe struct {
	name   string
	input  []GoodsType
	output GoodsType
}

var recipes = [NumProductions]recipe{
	SteelMill:        {"SteelMill", []GoodsType{GoodLabor, GoodIron, GoodCoal}, GoodSteel},
	IronMine:         {"IronMine", []GoodsType{GoodLabor, GoodTool}, GoodIron},
	CoalMine:         {"CoalMine", []GoodsType{GoodLabor, GoodTool}, GoodCoal},
	CopperMine:       {"CopperMine", []GoodsType{GoodLabor, GoodTool}, GoodCopper},
	OilWell:          {"OilWell", []GoodsType{GoodLabor, GoodTool}, GoodOil},
	CarFactory:       {"CarFactory", []GoodsType{GoodLabor, GoodSteel}, GoodCar},
	ToolFactory:      {"ToolFactory", []GoodsType{GoodLabor, GoodSteel}, GoodTool},
	WeaponFactory:    {"WeaponFactory", []GoodsType{GoodLabor, GoodSteel, GoodTool}, GoodWeapon},
	ClothesFactory:   {"ClothesFactory", []GoodsType{GoodLabor, GoodTool}, GoodClothes},
	FurnitureFactory: {"FurnitureFactory", []GoodsType{GoodLabor, GoodWood, GoodTool}, GoodFurniture},
	WineFactory:      {"WineFactory", []GoodsType{GoodLabor, GoodTool}, GoodWine},
	TobaccoFarm:      {"TobaccoFarm", []GoodsType{GoodLabor}, GoodTobacco},
	House:            {"House", nil, GoodRent},
	SawMill:          {"SawMill", []GoodsType{GoodLabor, GoodTool}, GoodWood},
	CottonFarm:       {"CottonFarm", []GoodsType{GoodLabor, GoodTool}, GoodCotton},
}

// AllProductions returns every facility kind in declaration order.
func AllProductions() []Production {
	out := make([]Production, NumProductions)
	for i := range out {
		out[i] = Production(i)
	}
	return out
}

// Valid reports whether p is a known facility kind.
func (p Production) Valid() bool {
	return int(p) < NumProductions
}

func (p Production) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Production(%d)", uint8(p))
	}
	return recipes[p].name
}

// Input returns the goods consumed by one production run. The slice is a
// copy; House has no inputs.
func (p Production) Input() []GoodsType {
	if !p.Valid() {
		return nil
	}
	in := recipes[p].input
	out := make([]GoodsType, len(in))
	copy(out, in)
	return out
}

// Output returns the single good this facility produces. An unknown kind
// returns an invalid GoodsType.
func (p Production) Output() GoodsType {
	if !p.Valid() {
		return GoodsType(NumGoods)
	}
	return recipes[p].output
}
