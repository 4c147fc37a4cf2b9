package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeaponFactoryRecipe(t *testing.T) {
	assert.ElementsMatch(t, []GoodsType{GoodLabor, GoodSteel, GoodTool}, WeaponFactory.Input())
	assert.Equal(t, GoodWeapon, WeaponFactory.Output())
}

func TestRecipes(t *testing.T) {
	tests := []struct {
		kind   Production
		input  []GoodsType
		output GoodsType
	}{
		{SteelMill, []GoodsType{GoodLabor, GoodIron, GoodCoal}, GoodSteel},
		{IronMine, []GoodsType{GoodLabor, GoodTool}, GoodIron},
		{CoalMine, []GoodsType{GoodLabor, GoodTool}, GoodCoal},
		{CopperMine, []GoodsType{GoodLabor, GoodTool}, GoodCopper},
		{OilWell, []GoodsType{GoodLabor, GoodTool}, GoodOil},
		{CarFactory, []GoodsType{GoodLabor, GoodSteel}, GoodCar},
		{ToolFactory, []GoodsType{GoodLabor, GoodSteel}, GoodTool},
		{WeaponFactory, []GoodsType{GoodLabor, GoodSteel, GoodTool}, GoodWeapon},
		{ClothesFactory, []GoodsType{GoodLabor, GoodTool}, GoodClothes},
		{FurnitureFactory, []GoodsType{GoodLabor, GoodWood, GoodTool}, GoodFurniture},
		{WineFactory, []GoodsType{GoodLabor, GoodTool}, GoodWine},
		{TobaccoFarm, []GoodsType{GoodLabor}, GoodTobacco},
		{House, []GoodsType{}, GoodRent},
		{SawMill, []GoodsType{GoodLabor, GoodTool}, GoodWood},
		{CottonFarm, []GoodsType{GoodLabor, GoodTool}, GoodCotton},
	}
	assert.Len(t, tests, NumProductions)
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.input, tt.kind.Input())
			assert.Equal(t, tt.output, tt.kind.Output())
		})
	}
}

func TestInputReturnsCopy(t *testing.T) {
	in := SteelMill.Input()
	in[0] = GoodWine
	assert.Equal(t, GoodLabor, SteelMill.Input()[0])
	assert.Empty(t, House.Input())
}

func TestUnknownProduction(t *testing.T) {
	p := Production(NumProductions + 3)
	assert.False(t, p.Valid())
	assert.Nil(t, p.Input())
	assert.False(t, p.Output().Valid())
}
