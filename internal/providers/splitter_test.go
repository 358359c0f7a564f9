package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitThirtyAmpLandsInTentAndRV(t *testing.T) {
	items := []Item{{Name: "30 amp electric", Price: 40}}
	got := Split(items, TeePeePark.Rules)

	require.Len(t, got, 3)
	for _, c := range []Class{ClassTent, ClassRV} {
		r := got[c]
		require.True(t, r.Available, "class %s", c)
		assert.Equal(t, 40.0, *r.Price)
		assert.Equal(t, "$40.00 per night - 30 amp electric", r.Message)
	}
	assert.False(t, got[ClassLodging].Available)
	assert.Equal(t, "No lodging options available.", got[ClassLodging].Message)
}

func TestPrioritySelectionIgnoresPrice(t *testing.T) {
	sel := Priority("A", "B", "C")
	it, ok := sel([]Item{{Name: "C", Price: 10}, {Name: "B", Price: 90}})
	require.True(t, ok)
	assert.Equal(t, "B", it.Name)
	assert.Equal(t, 90.0, it.Price)

	_, ok = sel([]Item{{Name: "D", Price: 1}})
	assert.False(t, ok)
}

func TestTouristParkTentPriority(t *testing.T) {
	items := []Item{
		{Name: "W/E Campsite", Price: 35},
		{Name: "Rustic Tent Site", Price: 50},
		{Name: "Full Hookup Campsite", Price: 45},
	}
	got := Split(items, TouristParkPark.Rules)
	assert.Equal(t, 50.0, *got[ClassTent].Price, "rustic tent outranks the cheaper W/E site")
	assert.Equal(t, 35.0, *got[ClassRV].Price)
}

func TestSplitDeclaresEveryClass(t *testing.T) {
	got := Split(nil, TouristParkPark.Rules)
	require.Len(t, got, 2)
	assert.Equal(t, "No tent sites available.", got[ClassTent].Message)
	assert.Equal(t, "No RV sites available.", got[ClassRV].Message)
	assertResultInvariant(t, MultiOutcome(got))
}

func TestSelectors(t *testing.T) {
	items := []Item{{Name: "Deluxe Back-In RV", Price: 70}, {Name: "Standard Back-In RV", Price: 55}, {Name: "Lakefront Basic RV", Price: 80}}

	it, ok := Cheapest(items)
	require.True(t, ok)
	assert.Equal(t, "Standard Back-In RV", it.Name)

	it, ok = Prefer("Lakefront Basic RV")(items)
	require.True(t, ok)
	assert.Equal(t, 80.0, it.Price)

	it, ok = Prefer("Rice Creek Glamping Pod")(items)
	require.True(t, ok)
	assert.Equal(t, 55.0, it.Price)

	it, ok = First(items)
	require.True(t, ok)
	assert.Equal(t, "Deluxe Back-In RV", it.Name)

	_, ok = Cheapest(nil)
	assert.False(t, ok)
}

func TestMatchers(t *testing.T) {
	assert.True(t, Contains("tent", "primitive")("Primitive Site"))
	assert.False(t, Contains("tent")("Deluxe Cabin"))
	assert.True(t, OneOf("W/E Campsite")(" w/e campsite "))
	assert.False(t, OneOf("W/E Campsite")("W/E Campsite - Pull Through"))
}
