// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package projection converts geodetic positions into planar grid coordinates.
package projection

import (
	"errors"
	"fmt"
	"math"

	utm "github.com/im7mortal/UTM"

	"github.com/wneessen/fixreporter/internal/position"
)

// ErrInvalidPosition is returned for positions outside of the WGS84 coordinate ranges.
var ErrInvalidPosition = errors.New("position is out of range")

// Projector converts a geodetic position into grid coordinates.
type Projector interface {
	Project(pos position.Position) (Coordinates, error)
}

// Coordinates is a projected position in meters.
type Coordinates struct {
	Easting    float64
	Northing   float64
	ZoneNumber int
	// ZoneLetter is the hemisphere letter, N or S, not the latitude band
	ZoneLetter string
}

// Grid is the floor-truncated integer representation of projected Coordinates.
type Grid struct {
	Easting  int64
	Northing int64
}

// Floor truncates both coordinates towards negative infinity.
func (c Coordinates) Floor() Grid {
	return Grid{
		Easting:  int64(math.Floor(c.Easting)),
		Northing: int64(math.Floor(c.Northing)),
	}
}

// UTM projects positions into the Universal Transverse Mercator zone they fall into.
type UTM struct{}

// NewUTM returns a new UTM projector.
func NewUTM() *UTM {
	return &UTM{}
}

// Project converts pos into UTM coordinates.
func (u *UTM) Project(pos position.Position) (Coordinates, error) {
	var coords Coordinates
	if !pos.Valid() || math.IsNaN(pos.Lat) || math.IsNaN(pos.Lon) {
		return coords, ErrInvalidPosition
	}
	easting, northing, zoneNumber, zoneLetter, err := utm.FromLatLon(pos.Lat, pos.Lon, pos.Lat >= 0)
	if err != nil {
		return coords, fmt.Errorf("failed to project position: %w", err)
	}
	coords.Easting = easting
	coords.Northing = northing
	coords.ZoneNumber = zoneNumber
	coords.ZoneLetter = zoneLetter
	return coords, nil
}
