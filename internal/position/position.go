// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package position

import (
	geo "github.com/kellydunn/golang-geo"
)

// EarthRadius is the mean earth radius in meters used for the great-circle distance.
const EarthRadius = 6371000.0

// Position represents a geodetic position in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Valid checks if the position lies within the WGS84 latitude and longitude ranges
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance returns the great-circle distance between a and b in meters. The haversine formula
// is evaluated by golang-geo, which works in kilometers on a sphere of the same radius.
func Distance(a, b Position) float64 {
	from := geo.NewPoint(a.Lat, a.Lon)
	to := geo.NewPoint(b.Lat, b.Lon)
	return from.GreatCircleDistance(to) * (EarthRadius / geo.EARTH_RADIUS)
}
