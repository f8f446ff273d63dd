// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gga

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/adrianmo/go-nmea"

	"github.com/wneessen/fixreporter/internal/position"
)

// Field positions in the comma-split sentence
const (
	fieldTime       = 1
	fieldLatitude   = 2
	fieldNorthSouth = 3
	fieldLongitude  = 4
	fieldEastWest   = 5
	fieldQuality    = 6
	fieldSatellites = 7
	fieldAccuracy   = 8

	latDegreeDigits = 2
	lonDegreeDigits = 3
)

var (
	// ErrEmptyInput is returned when the sentence to parse is empty.
	ErrEmptyInput = errors.New("empty sentence")

	// ErrUnsupportedSentence is returned for any sentence that is not a GGA sentence.
	ErrUnsupportedSentence = errors.New("unsupported sentence type")

	// ErrMalformedField is returned if a required field is missing or not numeric.
	ErrMalformedField = errors.New("malformed field")

	// ErrChecksum is returned in strict mode if the sentence does not pass NMEA validation.
	ErrChecksum = errors.New("sentence failed NMEA validation")
)

// FieldError describes which field of a sentence could not be decoded.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %q: %s", ErrMalformedField, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s %q", ErrMalformedField, e.Field, e.Value)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrMalformedField
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Fix is a single resolved GPS position together with its horizontal accuracy estimate.
type Fix struct {
	Position position.Position
	// HorizontalAccuracy is the accuracy proxy in meters (the HDOP field of the sentence)
	HorizontalAccuracy float64

	// Informational fields, empty/zero if the receiver did not provide them
	Time       string
	Quality    string
	Satellites int
}

// record is the fixed schema of a GGA sentence, holding the raw field values by name.
type record struct {
	time       string
	latitude   string
	northSouth string
	longitude  string
	eastWest   string
	quality    string
	satellites string
	accuracy   string
}

// Parser decodes GGA sentences. The zero value is a lenient parser that does not verify
// the sentence checksum.
type Parser struct {
	StrictChecksum bool
}

// Parse decodes a GGA sentence with a lenient Parser.
func Parse(sentence string) (Fix, error) {
	return Parser{}.Parse(sentence)
}

// Parse decodes the given GGA sentence into a Fix.
func (p Parser) Parse(sentence string) (Fix, error) {
	var fix Fix
	if sentence == "" {
		return fix, ErrEmptyInput
	}
	if !strings.HasPrefix(sentence, SentenceID) {
		return fix, ErrUnsupportedSentence
	}
	if p.StrictChecksum {
		if err := validate(sentence); err != nil {
			return fix, err
		}
	}

	rec, err := newRecord(sentence)
	if err != nil {
		return fix, err
	}

	lat, err := parseCoordinate("latitude", rec.latitude, latDegreeDigits)
	if err != nil {
		return fix, err
	}
	if rec.northSouth == "S" {
		lat = -lat
	}
	lon, err := parseCoordinate("longitude", rec.longitude, lonDegreeDigits)
	if err != nil {
		return fix, err
	}
	if rec.eastWest == "W" {
		lon = -lon
	}
	acc, err := strconv.ParseFloat(rec.accuracy, 64)
	if err != nil {
		return fix, &FieldError{Field: "accuracy", Value: rec.accuracy, Err: err}
	}
	if math.IsNaN(acc) || math.IsInf(acc, 0) || acc < 0 {
		return fix, &FieldError{Field: "accuracy", Value: rec.accuracy}
	}

	fix.Position = position.Position{Lat: lat, Lon: lon}
	fix.HorizontalAccuracy = acc
	fix.Time = rec.time
	fix.Quality = rec.quality
	if sats, err := strconv.Atoi(rec.satellites); err == nil {
		fix.Satellites = sats
	}

	return fix, nil
}

// newRecord splits the sentence and maps the positional fields into a record. A sentence that
// ends before the accuracy field is malformed.
func newRecord(sentence string) (record, error) {
	fields := strings.Split(sentence, ",")
	if len(fields) <= fieldAccuracy {
		return record{}, &FieldError{Field: missingField(len(fields)), Value: ""}
	}
	return record{
		time:       fields[fieldTime],
		latitude:   fields[fieldLatitude],
		northSouth: fields[fieldNorthSouth],
		longitude:  fields[fieldLongitude],
		eastWest:   fields[fieldEastWest],
		quality:    fields[fieldQuality],
		satellites: fields[fieldSatellites],
		accuracy:   fields[fieldAccuracy],
	}, nil
}

// missingField names the first required field that is absent in a sentence with n fields.
func missingField(n int) string {
	switch {
	case n <= fieldNorthSouth:
		return "latitude"
	case n <= fieldEastWest:
		return "longitude"
	default:
		return "accuracy"
	}
}

// parseCoordinate decodes a (d)ddmm.mmmm value into decimal degrees. degDigits is the number of
// leading characters that make up the degree part.
func parseCoordinate(name, value string, degDigits int) (float64, error) {
	if len(value) <= degDigits {
		return 0, &FieldError{Field: name, Value: value}
	}
	degrees, err := strconv.ParseFloat(value[:degDigits], 64)
	if err != nil {
		return 0, &FieldError{Field: name, Value: value, Err: err}
	}
	minutes, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, &FieldError{Field: name, Value: value, Err: err}
	}
	return degrees + minutes/60, nil
}

// validate runs the sentence through the go-nmea parser, which verifies the checksum and the
// GGA field layout.
func validate(sentence string) error {
	parsed, err := nmea.Parse(sentence)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}
	if _, ok := parsed.(nmea.GGA); !ok {
		return fmt.Errorf("%w: unexpected sentence type %s", ErrChecksum, parsed.DataType())
	}
	return nil
}
