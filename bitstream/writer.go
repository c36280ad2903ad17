/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package bitstream

import (
	"fmt"
	"math/big"
)

// Writer accumulates bits. The zero value is an empty Writer ready for use.
type Writer struct {
	data []byte
	n    int
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.n
}

// Bits returns a snapshot of the bits written so far.
func (w *Writer) Bits() Bits {
	return Bits{data: append([]byte(nil), w.data...), n: w.n}
}

func (w *Writer) writeBit(bit byte) {
	if w.n%ByteSize == 0 {
		w.data = append(w.data, 0)
	}
	if bit != 0 {
		w.data[len(w.data)-1] |= 1 << uint(ByteSize-1-w.n%ByteSize)
	}
	w.n++
}

// WriteUint appends the low width bits of v, most significant first. Widths
// beyond 64 are left-padded with 0s.
//
// It panics if width is negative or v doesn't fit in width bits.
func (w *Writer) WriteUint(v uint64, width int) {
	if width < 0 {
		panic(fmt.Sprintf("illegal width %d", width))
	}
	if width < 64 && v>>uint(width) != 0 {
		panic(fmt.Sprintf("value %d does not fit in %d bits", v, width))
	}
	for i := width - 1; i >= 0; i-- {
		if i >= 64 {
			w.writeBit(0)
			continue
		}
		w.writeBit(byte(v>>uint(i)) & 1)
	}
}

// WriteBig appends v as an unsigned integer of exactly width bits.
//
// It panics if v is negative or doesn't fit in width bits.
func (w *Writer) WriteBig(v *big.Int, width int) {
	if v.Sign() < 0 || v.BitLen() > width {
		panic(fmt.Sprintf("value %s does not fit in %d bits", v, width))
	}
	for i := width - 1; i >= 0; i-- {
		w.writeBit(byte(v.Bit(i)))
	}
}

// WriteBits appends all of b.
func (w *Writer) WriteBits(b Bits) {
	for i := 0; i < b.n; i++ {
		w.writeBit(b.bit(i))
	}
}
