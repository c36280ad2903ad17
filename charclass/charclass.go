/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package charclass classifies AI values by the narrowest alphabet that can
// represent them and provides the numeric helpers the binary codec uses to
// size its fields.
package charclass

import (
	"math"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Safe64Alphabet is the URI-safe alphabet used to render packed binary as
// text; a character's index is its 6-bit value.
const Safe64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	hexLowerAlphabet = "0123456789abcdef"
	hexUpperAlphabet = "0123456789ABCDEF"
)

// Encoding is one of the five value encodings of the compressed format. The
// numeric value of an Encoding is its 3-bit tag in the binary stream.
type Encoding uint8

const (
	Numeric  = Encoding(0)
	HexLower = Encoding(1)
	HexUpper = Encoding(2)
	Safe64   = Encoding(3)
	ASCII    = Encoding(4)
)

// TagBits is the width of an encoding tag in the binary stream.
const TagBits = 3

// encodings holds the per-encoding character codec. Numeric values aren't
// packed per character, so its entry only has a name.
var encodings = [...]struct {
	name     string
	alphabet string
	bits     int
}{
	Numeric:  {name: "numeric"},
	HexLower: {name: "hex-lower", alphabet: hexLowerAlphabet, bits: 4},
	HexUpper: {name: "hex-upper", alphabet: hexUpperAlphabet, bits: 4},
	Safe64:   {name: "safe-64", alphabet: Safe64Alphabet, bits: 6},
	ASCII:    {name: "ASCII", bits: 7},
}

// IsValid returns true if e is one of the five defined encodings.
func (e Encoding) IsValid() bool {
	return int(e) < len(encodings)
}

func (e Encoding) String() string {
	if !e.IsValid() {
		return "unknown encoding"
	}
	return encodings[e].name
}

// CharBits returns the number of bits each character occupies when packed
// with this encoding. Numeric values are packed as a single integer, so this
// returns 0 for Numeric.
func (e Encoding) CharBits() int {
	if !e.IsValid() {
		return 0
	}
	return encodings[e].bits
}

// EncodeChar returns c's packed value, or false if c is outside this
// encoding's alphabet.
func (e Encoding) EncodeChar(c byte) (uint64, bool) {
	switch e {
	case HexLower, HexUpper, Safe64:
		i := strings.IndexByte(encodings[e].alphabet, c)
		return uint64(i), i >= 0
	case ASCII:
		return uint64(c), c < 0x80
	}
	return 0, false
}

// DecodeChar returns the character with packed value v, or false if v isn't
// a value of this encoding.
func (e Encoding) DecodeChar(v uint64) (byte, bool) {
	switch e {
	case HexLower, HexUpper, Safe64:
		if v >= uint64(len(encodings[e].alphabet)) {
			return 0, false
		}
		return encodings[e].alphabet[v], true
	case ASCII:
		return byte(v), v < 0x80
	}
	return 0, false
}

// Classify returns the narrowest encoding able to represent s. The classes
// are tried from widest to narrowest, so a later match always wins:
// ASCII, safe-64, hex-lower, hex-upper, numeric.
func Classify(s string) Encoding {
	enc := ASCII
	if IsSafe64(s) {
		enc = Safe64
	}
	if onlyIn(s, hexLowerAlphabet) {
		enc = HexLower
	}
	if onlyIn(s, hexUpperAlphabet) {
		enc = HexUpper
	}
	if IsNumeric(s) {
		enc = Numeric
	}
	return enc
}

// IsSafe64 returns true if s is non-empty and consists only of characters in
// the safe-64 alphabet.
func IsSafe64(s string) bool {
	return onlyIn(s, Safe64Alphabet)
}

// IsNumeric returns true if s is non-empty and consists only of digits 0-9.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func onlyIn(s, alphabet string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// epsilon keeps exact powers of two (and their decimal analogues) from
// rounding down.
const epsilon = 0.01

// LengthBits returns the width of a length prefix able to hold lengths up to
// maxLength.
func LengthBits(maxLength int) int {
	return int(math.Ceil(math.Log2(float64(maxLength)) + epsilon))
}

// ValueBits returns the width needed to hold any integer with the given
// number of decimal digits.
func ValueBits(digits int) int {
	return int(math.Ceil(float64(digits)*math.Log2(10) + epsilon))
}

// percentEscaper escapes the characters that may not appear literally in a
// Digital Link path segment or query value.
var percentEscaper = strings.NewReplacer(
	"#", "%23",
	"/", "%2F",
	"%", "%25",
	"&", "%26",
	"+", "%2B",
	",", "%2C",
	"!", "%21",
	"(", "%28",
	")", "%29",
	"*", "%2A",
	"'", "%27",
	":", "%3A",
	";", "%3B",
	"<", "%3C",
	"=", "%3D",
	">", "%3E",
	"?", "%3F",
)

// PercentEncode escapes the Digital Link reserved characters
// #/%&+,!()*':;<=>? in s.
func PercentEncode(s string) string {
	return percentEscaper.Replace(s)
}

// queryValueSafe holds the bytes a query string value can carry literally.
const queryValueSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" +
	"-._~!$'()*,:@/?="

// QueryValueEncode escapes every byte of s that can't appear literally in a
// query string value as %XX, so any decoded value can be written back.
func QueryValueEncode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(queryValueSafe, c) >= 0 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hexUpperAlphabet[c>>4])
		sb.WriteByte(hexUpperAlphabet[c&0x0F])
	}
	return sb.String()
}

// PercentDecode reverses percent-encoding in s. A '+' is left as-is.
func PercentDecode(s string) (string, error) {
	d, err := url.PathUnescape(s)
	if err != nil {
		return "", errors.Wrapf(err, "unable to percent-decode %q", s)
	}
	return d, nil
}
