/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package epc

import (
	"encoding/hex"
	"strconv"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/bitstream"
	"github.com/pkg/errors"
)

const (
	SGTIN96Header  = 0x30
	SGTIN198Header = 0x36

	SGTIN96NumBytes  = 12
	SGTIN198NumBytes = 25 // 198 bits, padded to a byte boundary

	// header, filter and partition, then the prefix and item reference
	// share 44 bits, then the serial
	filterBit    = 8
	partitionBit = filterBit + 3
	keyBit       = partitionBit + 3
	keyBits      = 44
	serialBit    = keyBit + keyBits

	serial96Bits  = 96 - serialBit
	serial198Bits = 198 - serialBit
)

// layout is what differs between the SGTIN binary encodings.
type layout struct {
	name      string
	numBytes  int
	totalBits int
	// alphanumeric serials are 7 bit characters; the others are one number
	alphanumeric bool
}

var layouts = map[byte]layout{
	SGTIN96Header:  {"SGTIN-96", SGTIN96NumBytes, 96, false},
	SGTIN198Header: {"SGTIN-198", SGTIN198NumBytes, 198, true},
}

// partition is how one partition value divides the 44 key bits and the 12
// digits between company prefix and item reference. The indicator digit
// rides along at the front of the item reference field.
type partition struct {
	companyBits   int
	companyDigits int
	itemDigits    int
}

var partitions = [...]partition{
	{40, 12, 0},
	{37, 11, 1},
	{34, 10, 2},
	{30, 9, 3},
	{27, 8, 4},
	{24, 7, 5},
	{20, 6, 6},
}

func pow10(n int) int {
	v := 1
	for ; n > 0; n-- {
		v *= 10
	}
	return v
}

// itemRefs is the number of item references the partition has room for.
// Partition 0 has a single, empty one.
func (p partition) itemRefs() int         { return pow10(p.itemDigits) }
func (p partition) maxItemRef() int       { return p.itemRefs() - 1 }
func (p partition) maxCompanyPrefix() int { return pow10(p.companyDigits) - 1 }

// DecodeSGTINString decodes a hex SGTIN EPC, most significant byte first.
// Like DecodeSGTIN, it doesn't validate the result.
func DecodeSGTINString(epc string) (SGTIN, error) {
	b, err := hex.DecodeString(epc)
	if err != nil {
		return SGTIN{}, errors.Wrapf(err, "EPC %q isn't hex", epc)
	}
	return DecodeSGTIN(b)
}

// ParseTag decodes a hex SGTIN EPC and validates it.
func ParseTag(epc string) (SGTIN, error) {
	s, err := DecodeSGTINString(epc)
	if err != nil {
		return SGTIN{}, err
	}
	if err := s.ValidateRanges(); err != nil {
		return SGTIN{}, err
	}
	return s, nil
}

// DecodeSGTIN splits an SGTIN-96 or SGTIN-198 EPC into its fields.
//
// It fails only when the fields can't be located: no data, a header other
// than SGTIN-96 or SGTIN-198, the wrong length for the header, or a partition
// above 6. Anything else, such as an item reference too large for its
// partition, is left for ValidateRanges.
//
// SGTIN-198 data starts at the first bit of the first byte; its last byte
// ends with two padding bits.
func DecodeSGTIN(b []byte) (SGTIN, error) {
	if len(b) == 0 {
		return SGTIN{}, errors.New("no EPC data")
	}
	l, ok := layouts[b[0]]
	if !ok {
		return SGTIN{}, errors.Errorf("header %#X is neither SGTIN-96 (0x30) nor SGTIN-198 (0x36)", b[0])
	}
	if len(b) != l.numBytes {
		return SGTIN{}, errors.Errorf("%s is %d bytes, not %d", l.name, l.numBytes, len(b))
	}
	bits, err := bitstream.FromBytes(b, l.totalBits)
	if err != nil {
		return SGTIN{}, err
	}

	// the lengths are checked, so none of these reads can run out of bits
	filter, _ := bits.Uint(filterBit, 3)
	pv, _ := bits.Uint(partitionBit, 3)
	if int(pv) >= len(partitions) {
		return SGTIN{}, errors.Errorf("partition %d isn't in [0,6]", pv)
	}
	p := partitions[pv]
	companyPrefix, _ := bits.Uint(keyBit, p.companyBits)
	iir, _ := bits.Uint(keyBit+p.companyBits, keyBits-p.companyBits)

	var serial string
	if l.alphanumeric {
		s, n, charAfterNull := DecodeASCIIAt(bits, serialBit, serial198Bits/asciiBits)
		serial = s[:n]
		if charAfterNull {
			// keep the whole thing, so validation rejects it
			serial = s
		}
	} else {
		v, _ := bits.Uint(serialBit, serial96Bits)
		serial = strconv.FormatUint(v, 10)
	}

	return SGTIN{
		filter:        FilterValue(filter),
		partition:     int(pv),
		companyPrefix: int(companyPrefix),
		indicator:     int(iir) / p.itemRefs(),
		itemRef:       int(iir) % p.itemRefs(),
		serial:        serial,
	}, nil
}
