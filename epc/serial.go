/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package epc

import (
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/bitstream"
)

// ISO 646 characters are packed in 7 bits.
const asciiBits = 7

var (
	gs1Escaper = strings.NewReplacer(
		`"`, "%22",
		`#`, "%23",
		`%`, "%25",
		`&`, "%26",
		`/`, "%2F",
		`<`, "%3C",
		`>`, "%3E",
		`?`, "%3F",
	)

	gs1Unescaper = strings.NewReplacer(
		"%22", `"`,
		"%23", `#`,
		"%25", `%`,
		"%26", `&`,
		"%2F", `/`,
		"%3C", `<`,
		"%3E", `>`,
		"%3F", `?`,
	)
)

// DecodeASCIIAt reads up to count 7-bit ISO 646 characters starting at bit
// pos. Reading stops early if the bits run out.
//
// It returns every character read, the number of characters before the first
// NUL, and whether any non-NUL character follows that NUL. Tag serials are NUL
// padded, so the usable value is s[:n] unless charAfterNull is set.
func DecodeASCIIAt(bits bitstream.Bits, pos, count int) (s string, n int, charAfterNull bool) {
	if pos < 0 || count <= 0 {
		return "", 0, false
	}
	if avail := (bits.Len() - pos) / asciiBits; avail < count {
		count = avail
	}
	if count <= 0 {
		return "", 0, false
	}

	out := make([]byte, count)
	n = -1
	for i := range out {
		c, _ := bits.Uint(pos+i*asciiBits, asciiBits)
		out[i] = byte(c)
		switch {
		case c == 0 && n < 0:
			n = i
		case c != 0 && n >= 0:
			charAfterNull = true
		}
	}
	if n < 0 {
		n = count
	}
	return string(out), n, charAfterNull
}

// EscapeGS1 returns s with the following characters replaced by their GS1
// escape sequences:
//   - `"` -> "%22"
//   - `#` -> "%23" (note: only valid for AI Component and Parts)
//   - `%` -> "%25"
//   - `&` -> "%26"
//   - `/` -> "%2F"
//   - `<` -> "%3C"
//   - `>` -> "%3E"
//   - `?` -> "%3F"
func EscapeGS1(s string) string {
	return gs1Escaper.Replace(s)
}

// UnescapeGS1 reverses EscapeGS1.
func UnescapeGS1(s string) string {
	return gs1Unescaper.Replace(s)
}
