// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gga isolates and decodes NMEA 0183 GGA sentences ("$GPGGA") into position fixes.
package gga
