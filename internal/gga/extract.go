// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gga

import (
	"strings"
)

// SentenceID is the sentence identifier of a GPS fix data sentence.
const SentenceID = "$GPGGA"

// Extract returns the first line of raw that starts with the GGA sentence identifier. Other
// lines and sentence types are ignored. If no matching line is found, an empty string is
// returned. The line is neither checksum- nor field-validated.
func Extract(raw string) string {
	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, SentenceID) {
			return line
		}
	}
	return ""
}
