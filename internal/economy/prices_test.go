package economy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPriceBook(t *testing.T) {
	book := NewPriceBook()
	records := book.Records()
	require.Len(t, records, NumGoods)
	assert.Equal(t, NumGoods, book.Len())
	for i, r := range records {
		assert.Equal(t, GoodsType(i), r.Good)
		assert.Equal(t, r.Good.StartingPrice(), r.Price)
	}
}

func TestPriceBookSet(t *testing.T) {
	book := NewPriceBook()
	require.NoError(t, book.Set(GoodSteel, 2.5))

	p, err := book.Price(GoodSteel)
	require.NoError(t, err)
	assert.Equal(t, 2.5, p)

	assert.ErrorIs(t, book.Set(GoodSteel, -1), ErrNegativePrice)
	assert.ErrorIs(t, book.Set(GoodSteel, math.NaN()), ErrNonFinitePrice)
	assert.ErrorIs(t, book.Set(GoodSteel, math.Inf(1)), ErrNonFinitePrice)

	p, _ = book.Price(GoodSteel)
	assert.Equal(t, 2.5, p, "rejected writes leave the price alone")
	assert.Len(t, book.Records(), NumGoods)
}

func TestPriceBookMissing(t *testing.T) {
	book := NewPriceBook()
	_, err := book.Price(GoodsType(NumGoods))
	assert.ErrorIs(t, err, ErrMissingPrice)
	assert.ErrorIs(t, book.Set(GoodsType(200), 1), ErrMissingPrice)
}
