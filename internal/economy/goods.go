// Package economy provides the goods catalogue, production recipes, orders,
// the price book and the per-tick market clearing step.
package economy

import (
	"errors"
	"fmt"
	"strings"
)

// GoodsType enumerates the tradeable goods.
type GoodsType uint8

const (
	GoodFood GoodsType = iota
	GoodSteel
	GoodCoal
	GoodIron
	GoodCopper
	GoodOil
	GoodCar
	GoodTool
	GoodWeapon
	GoodClothes
	GoodFurniture
	GoodWine
	GoodTobacco
	GoodRent
	GoodWood
	GoodLabor
	GoodCotton
)

// NumGoods is the total number of good types.
const NumGoods = 17

// ErrUnknownGood is returned when a name or value does not map to a good.
var ErrUnknownGood = errors.New("unknown good")

var goodNames = [NumGoods]string{
	"Food", "Steel", "Coal", "Iron", "Copper", "Oil", "Car", "Tool", "Weapon",
	"Clothes", "Furniture", "Wine", "Tobacco", "Rent", "Wood", "Labor", "Cotton",
}

// AllGoods returns every good in catalogue order.
func AllGoods() []GoodsType {
	goods := make([]GoodsType, NumGoods)
	for i := range goods {
		goods[i] = GoodsType(i)
	}
	return goods
}

// Valid reports whether g is one of the catalogue goods.
func (g GoodsType) Valid() bool {
	return int(g) < NumGoods
}

func (g GoodsType) String() string {
	if !g.Valid() {
		return fmt.Sprintf("GoodsType(%d)", uint8(g))
	}
	return goodNames[g]
}

// StartingPrice is the placeholder calibration every good opens at.
func (g GoodsType) StartingPrice() float64 {
	return 1.0
}

// ParseGoodsType looks a good up by name, case-insensitively.
func ParseGoodsType(name string) (GoodsType, error) {
	for i, n := range goodNames {
		if strings.EqualFold(n, name) {
			return GoodsType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGood, name)
}
