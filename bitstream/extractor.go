/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package bitstream

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const (
	ByteSize = 8
	ByteMask = (1 << ByteSize) - 1
)

// Extractor extracts a run of bits from byte slices according to a bit
// offset into the slice and the length of the run.
//
// Create a new one with New(start, length), then use Extract(src) or
// ExtractTo(dst, src). The extracted bits are right-aligned in the
// destination, so the final extracted bit is the lowest-order bit of the
// final destination byte.
//
// Extractors are safe for concurrent extractions, provided callers don't use
// SetBounds during their use.
type Extractor struct {
	start, length int
	dstLen        int
	mask          byte
}

// New returns an Extractor for length bits beginning at bit start. Bit 0 is
// the highest-order bit of the 0'th byte of the input.
func New(start, length int) (x Extractor) {
	x.SetBounds(start, length)
	return x
}

// SetBounds changes the Extractor's start bit and bit length.
func (x *Extractor) SetBounds(start, length int) {
	if start < 0 || length < 1 {
		panic(fmt.Sprintf("illegal start (%d) or length (%d)", start, length))
	}
	if start+length < 0 {
		panic(fmt.Sprintf("cannot handle such a large start (%d) and length (%d)",
			start, length))
	}

	x.start = start
	x.length = length
	x.dstLen = (length + ByteSize - 1) / ByteSize
	x.mask = ByteMask
	if rem := length % ByteSize; rem != 0 {
		x.mask = byte(1<<uint(rem)) - 1
	}
}

// ByteLength returns the number of bytes this extractor extracts.
//
// That is, len(x.Extract(data)) == x.ByteLength().
func (x Extractor) ByteLength() int {
	return x.dstLen
}

// Buffer returns a buffer of the size needed by ExtractTo.
func (x Extractor) Buffer() []byte {
	return make([]byte, x.dstLen)
}

// srcBytes returns the number of source bytes an extraction touches.
func (x Extractor) srcBytes() int {
	return (x.start+x.length+ByteSize-1)/ByteSize - x.start/ByteSize
}

// bufferPool maintains a pool of reusable byte slices.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 8)
	},
}

// ExtractUInt64 extracts bits from the source and interprets them as a
// BigEndian uint64. It panics if the extractor's ByteLength is greater than 8.
func (x Extractor) ExtractUInt64(src []byte) uint64 {
	buff := bufferPool.Get().([]byte)
	defer bufferPool.Put(buff)
	binary.BigEndian.PutUint64(buff, 0)
	x.ExtractTo(buff[8-x.dstLen:], src)
	return binary.BigEndian.Uint64(buff)
}

// Extract returns a new slice holding the extracted bits.
func (x Extractor) Extract(src []byte) []byte {
	dst := x.Buffer()
	x.ExtractTo(dst, src)
	return dst
}

// ExtractTo writes the extracted bits into dst, which must hold at least
// ByteLength bytes. Only the first ByteLength bytes of dst are written.
func (x Extractor) ExtractTo(dst, src []byte) {
	if need := x.start/ByteSize + x.srcBytes(); len(src) < need {
		panic(fmt.Sprintf("cannot extract %d bytes from source[%d:%d], "+
			"as it only has %d total bytes",
			x.srcBytes(), x.start/ByteSize, need, len(src)))
	}
	if len(dst) < x.dstLen {
		panic(fmt.Sprintf("destination size %d is too small "+
			"(should be at least %d)", len(dst), x.dstLen))
	}

	// Each destination byte is the 8 source bits ending where the next
	// destination byte's bits begin; the first may reach before start, and
	// the mask clears those.
	end := x.start + x.length
	for i := x.dstLen - 1; i >= 0; i-- {
		dst[i] = byteAt(src, end-ByteSize*(x.dstLen-i))
	}
	dst[0] &= x.mask
}

// byteAt returns the 8 bits of src beginning at bit, treating bits outside
// src as 0.
func byteAt(src []byte, bit int) byte {
	idx := bit / ByteSize
	off := bit % ByteSize
	if off < 0 {
		idx--
		off += ByteSize
	}
	window := uint32(srcByte(src, idx))<<ByteSize | uint32(srcByte(src, idx+1))
	return byte((window << uint(off)) >> ByteSize)
}

func srcByte(src []byte, idx int) byte {
	if idx < 0 || idx >= len(src) {
		return 0
	}
	return src[idx]
}
