// 经纬度测地计算
package geo

import "math"

const (
	// 地球半径（英里）
	EARTH_RADIUS_MILES = 3958.8
	// 英里转米
	METERS_PER_MILE = 1609.344

	degToRad = math.Pi / 180.0
)

// 经纬度点
type Point struct {
	Lon float64 `json:"lon" bson:"lon"`
	Lat float64 `json:"lat" bson:"lat"`
}

// haversine公式计算大圆距离（英里），对称且distance(p,p)==0
func Distance(p1, p2 Point) float64 {
	if p1 == p2 {
		return 0
	}
	phi1 := p1.Lat * degToRad
	phi2 := p2.Lat * degToRad
	dPhi := (p2.Lat - p1.Lat) * degToRad
	dLambda := (p2.Lon - p1.Lon) * degToRad
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EARTH_RADIUS_MILES * c
}

// 大圆距离（米）
func DistanceMeters(p1, p2 Point) float64 {
	return Distance(p1, p2) * METERS_PER_MILE
}

// 坐标是否合法（经度[-180,180]，纬度[-90,90]）
func Valid(p Point) bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}
