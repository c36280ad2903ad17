/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package bitstream reads and writes runs of bits of arbitrary width at
// arbitrary offsets, and renders bit sequences as safe-64 text.
//
// Reads never mutate a Bits value: every read takes the position to read from
// and callers advance their own cursor, so a decoder can hand positions from
// one helper to the next without sharing a reader.
package bitstream

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Bits is an immutable sequence of bits backed by a byte slice, most
// significant bit first. Bits beyond Len in the final byte are always 0.
type Bits struct {
	data []byte
	n    int
}

// FromBytes returns the first n bits of data. Trailing bits of the final
// byte beyond n are cleared in the copy it keeps.
func FromBytes(data []byte, n int) (Bits, error) {
	if n < 0 || n > len(data)*ByteSize {
		return Bits{}, errors.Errorf("invalid bit length %d for %d bytes",
			n, len(data))
	}
	b := Bits{data: make([]byte, (n+ByteSize-1)/ByteSize), n: n}
	copy(b.data, data)
	if rem := n % ByteSize; rem != 0 {
		b.data[len(b.data)-1] &^= ByteMask >> uint(rem)
	}
	return b, nil
}

// ParseBinary converts a string of '0' and '1' characters into Bits.
func ParseBinary(s string) (Bits, error) {
	var w Writer
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			w.writeBit(0)
		case '1':
			w.writeBit(1)
		default:
			return Bits{}, errors.Errorf("character %d (%q) is not a binary digit",
				i, s[i])
		}
	}
	return w.Bits(), nil
}

// Len returns the number of bits.
func (b Bits) Len() int {
	return b.n
}

// Bytes returns a copy of the underlying bytes; unused trailing bits are 0.
func (b Bits) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// String returns the bits as a string of '0' and '1' characters.
func (b Bits) String() string {
	sb := &strings.Builder{}
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.bit(i) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b Bits) bit(i int) byte {
	return (b.data[i/ByteSize] >> uint(ByteSize-1-i%ByteSize)) & 1
}

func (b Bits) check(pos, width int) error {
	if pos < 0 || width < 1 {
		return errors.Errorf("illegal position (%d) or width (%d)", pos, width)
	}
	if pos+width > b.n {
		return errors.Errorf("cannot read %d bits at position %d: "+
			"only %d bits remain", width, pos, b.n-pos)
	}
	return nil
}

// Uint returns width bits (at most 64) starting at pos as an unsigned integer.
func (b Bits) Uint(pos, width int) (uint64, error) {
	if width > 64 {
		return 0, errors.Errorf("cannot read %d bits into a uint64", width)
	}
	if err := b.check(pos, width); err != nil {
		return 0, err
	}
	return New(pos, width).ExtractUInt64(b.data), nil
}

// Big returns width bits starting at pos as an unsigned big integer.
func (b Bits) Big(pos, width int) (*big.Int, error) {
	if err := b.check(pos, width); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(New(pos, width).Extract(b.data)), nil
}
