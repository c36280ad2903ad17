/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package bitstream

import (
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/pkg/errors"
)

const safe64Bits = 6

// EncodeSafe64 renders b as safe-64 text, 6 bits per character. If b's
// length isn't a multiple of 6, it's padded on the right with 0 bits.
func EncodeSafe64(b Bits) string {
	sb := &strings.Builder{}
	sb.Grow((b.n + safe64Bits - 1) / safe64Bits)
	for pos := 0; pos < b.n; pos += safe64Bits {
		var v uint64
		for i := 0; i < safe64Bits; i++ {
			v <<= 1
			if pos+i < b.n {
				v |= uint64(b.bit(pos + i))
			}
		}
		sb.WriteByte(charclass.Safe64Alphabet[v])
	}
	return sb.String()
}

// DecodeSafe64 converts safe-64 text back into bits. Padding isn't removed:
// the result always has 6*len(s) bits, and trailing 0s are simply left unread
// by whatever decodes the fields.
func DecodeSafe64(s string) (Bits, error) {
	var w Writer
	for i := 0; i < len(s); i++ {
		v, ok := charclass.Safe64.EncodeChar(s[i])
		if !ok {
			return Bits{}, errors.Errorf("character %d (%q) is not in the "+
				"safe-64 alphabet", i, s[i])
		}
		w.WriteUint(v, safe64Bits)
	}
	return w.Bits(), nil
}
