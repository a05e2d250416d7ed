package geo_test

import (
	"testing"

	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetry(t *testing.T) {
	p1 := geo.Point{Lon: -73.9857, Lat: 40.7484}
	p2 := geo.Point{Lon: -74.0445, Lat: 40.6892}

	// 对称性
	assert.Equal(t, geo.Distance(p1, p2), geo.Distance(p2, p1))
	// 同一点距离为0
	assert.Equal(t, 0.0, geo.Distance(p1, p1))
	assert.Equal(t, 0.0, geo.Distance(p2, p2))
}

func TestDistanceKnownPair(t *testing.T) {
	// 帝国大厦到自由女神像，约5.3英里
	p1 := geo.Point{Lon: -73.9857, Lat: 40.7484}
	p2 := geo.Point{Lon: -74.0445, Lat: 40.6892}
	d := geo.Distance(p1, p2)
	assert.InDelta(t, 5.3, d, 0.2)
	// 米换算
	assert.InDelta(t, d*geo.METERS_PER_MILE, geo.DistanceMeters(p1, p2), 1e-9)
}

func TestDistanceOneDegreeLat(t *testing.T) {
	// 纬度相差1度约69英里
	p1 := geo.Point{Lon: 0, Lat: 0}
	p2 := geo.Point{Lon: 0, Lat: 1}
	assert.InDelta(t, 69.09, geo.Distance(p1, p2), 0.1)
}

func FuzzDistance(f *testing.F) {
	f.Add(0.0, 0.0, 1.0, 1.0)
	f.Add(-73.98, 40.74, 116.4, 39.9)
	f.Fuzz(func(t *testing.T, lon1, lat1, lon2, lat2 float64) {
		p1 := geo.Point{Lon: lon1, Lat: lat1}
		p2 := geo.Point{Lon: lon2, Lat: lat2}
		if !geo.Valid(p1) || !geo.Valid(p2) {
			t.Skip()
		}
		d12 := geo.Distance(p1, p2)
		d21 := geo.Distance(p2, p1)
		// 对称且非负
		assert.Equal(t, d12, d21)
		assert.GreaterOrEqual(t, d12, 0.0)
	})
}

func TestValid(t *testing.T) {
	assert.True(t, geo.Valid(geo.Point{Lon: 116.4, Lat: 39.9}))
	assert.False(t, geo.Valid(geo.Point{Lon: 181, Lat: 0}))
	assert.False(t, geo.Valid(geo.Point{Lon: 0, Lat: -91}))
}
