/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package epc

import "strconv"

// FilterValue is the 3 bit packaging level of a tagged item. It's part of
// the tag encoding, not of the GTIN.
type FilterValue int

const (
	Other     = FilterValue(0)
	POS       = FilterValue(1)
	FullCase  = FilterValue(2)
	InnerPack = FilterValue(4)
	UnitLoad  = FilterValue(6)
	UnitPack  = FilterValue(7)
)

var filterNames = map[FilterValue]string{
	Other:     "Other",
	POS:       "POS",
	FullCase:  "Full Case",
	InnerPack: "Inner Pack",
	UnitLoad:  "Unit Load",
	UnitPack:  "Unit Pack",
}

// IsValid is false for the reserved values 3 and 5 and anything outside 3 bits.
func (fv FilterValue) IsValid() bool {
	_, ok := filterNames[fv]
	return ok
}

func (fv FilterValue) String() string {
	if name, ok := filterNames[fv]; ok {
		return name
	}
	if fv == 3 || fv == 5 {
		return "Reserved"
	}
	return "FilterValue(" + strconv.Itoa(int(fv)) + ")"
}
