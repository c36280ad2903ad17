/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package epc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/validate"
	"github.com/pkg/errors"
)

const (
	SGTINPureURIPrefix = "urn:epc:id:sgtin"

	// AIs of the element data an SGTIN carries
	gtinAI   = "01"
	serialAI = "21"
)

// SGTIN is a GTIN plus the serial of one instance of it. It's the EPC behind
// AI 01 with AI 21.
//
// Serials are alphanumeric strings: '7', '07' and '007' are three serials.
// Only SGTIN-198 can carry all of them; see CanSGTIN96.
//
// The company prefix and item reference keep their leading zeros implicitly:
// the partition fixes how many digits each has.
type SGTIN struct {
	// filter and partition only exist in tag encodings
	filter    FilterValue
	partition int

	companyPrefix int
	indicator     int
	itemRef       int
	serial        string
}

func (s *SGTIN) Serial() string      { return s.serial }
func (s *SGTIN) Filter() FilterValue { return s.filter }
func (s *SGTIN) Partition() int      { return s.partition }

// CompanyPrefix returns the 12-partition digits of the company prefix.
func (s *SGTIN) CompanyPrefix() string {
	return zeroPad(s.companyPrefix, 12-s.partition)
}

// ItemReference returns the item reference without its indicator; it's
// empty in partition 0.
func (s *SGTIN) ItemReference() string {
	return zeroPad(s.itemRef, s.partition)
}

func zeroPad(v, width int) string {
	if width <= 0 {
		return ""
	}
	return fmt.Sprintf("%0*d", width, v)
}

// NewSGTIN builds an SGTIN and reports whether its values are in range. The
// SGTIN is returned either way.
func NewSGTIN(filter FilterValue, partition, indicator, companyPrefix, itemRef int, serial string) (SGTIN, error) {
	s := SGTIN{
		filter:        filter,
		partition:     partition,
		indicator:     indicator,
		companyPrefix: companyPrefix,
		itemRef:       itemRef,
		serial:        serial,
	}
	return s, s.ValidateRanges()
}

// ValidateRanges reports the first field that can't be part of an SGTIN:
// out of range numbers for the partition, a reserved filter, or a serial
// that isn't a valid AI 21 value.
//
// Range checks are all it does. Values that fit but that GS1 forbids, such as
// restricted circulation numbers, pass.
func (s SGTIN) ValidateRanges() error {
	switch {
	case s.indicator < 0 || s.indicator > 9:
		return errors.Errorf("indicator %d isn't a single digit", s.indicator)
	case !s.filter.IsValid():
		return errors.Errorf("filter %d is reserved or unknown", s.filter)
	case s.partition < 0 || s.partition >= len(partitions):
		return errors.Errorf("partition %d isn't in [0,6]", s.partition)
	}

	p := partitions[s.partition]
	if s.itemRef < 0 || s.itemRef > p.maxItemRef() {
		return errors.Errorf("item reference %d doesn't fit the %d digits of partition %d",
			s.itemRef, p.itemDigits, s.partition)
	}
	if s.companyPrefix < 0 || s.companyPrefix > p.maxCompanyPrefix() {
		return errors.Errorf("company prefix %d doesn't fit the %d digits of partition %d",
			s.companyPrefix, p.companyDigits, s.partition)
	}
	if s.serial == "" {
		return errors.New("serial is empty")
	}

	table, err := aitable.Default()
	if err != nil {
		return err
	}
	if err := validate.VerifyAI(table, serialAI, s.serial); err != nil {
		return errors.Wrapf(err, "SGTIN serial %q isn't a valid GS1 serial", s.serial)
	}
	return nil
}

// CanSGTIN96 reports whether the serial fits SGTIN-96, which only stores
// numbers below 2^38 written without leading zeros ('0' itself is fine).
func (s SGTIN) CanSGTIN96() error {
	if s.serial == "" {
		return errors.New("serial is empty")
	}
	if _, err := strconv.ParseUint(s.serial, 10, serial96Bits); err != nil {
		return errors.Wrap(err, "SGTIN-96 serials are numbers below 2^38")
	}
	if len(s.serial) > 1 && s.serial[0] == '0' {
		return errors.Errorf("SGTIN-96 can't keep the leading zeros of %q", s.serial)
	}
	return nil
}

// body is the 13 GTIN digits ahead of the check digit.
func (s SGTIN) body() string {
	return strconv.Itoa(s.indicator) + s.CompanyPrefix() + s.ItemReference()
}

// checkDigit is the GS1 check digit of the GTIN.
func (s SGTIN) checkDigit() int {
	d, err := validate.CheckDigit(s.body())
	if err != nil {
		return 0
	}
	return int(d - '0')
}

// GTIN returns the 14 digit GTIN, with indicator and check digit.
func (s SGTIN) GTIN() string {
	return s.body() + strconv.Itoa(s.checkDigit())
}

// ElementData returns the AIs a Digital Link for this SGTIN is built from.
func (s SGTIN) ElementData() map[string]string {
	return map[string]string{
		gtinAI:   s.GTIN(),
		serialAI: s.serial,
	}
}

// URI returns the Pure Identity URI,
//
//	urn:epc:id:sgtin:CompanyPrefix.IndicatorAndItemRef.Serial
//
// with reserved serial characters escaped.
func (s SGTIN) URI() string {
	return SGTINPureURIPrefix + ":" + s.CompanyPrefix() + "." +
		strconv.Itoa(s.indicator) + s.ItemReference() + "." + EscapeGS1(s.serial)
}

// ParseSGTINURI reads a Pure Identity URI back into an SGTIN and validates
// it. The length of the company prefix gives the partition. The URI has no
// filter, so the result's filter is Other.
func ParseSGTINURI(uri string) (SGTIN, error) {
	rest, ok := strings.CutPrefix(uri, SGTINPureURIPrefix+":")
	if !ok {
		return SGTIN{}, errors.Errorf("%q isn't an %s URI", uri, SGTINPureURIPrefix)
	}
	parts := strings.SplitN(rest, ".", 3)
	if len(parts) != 3 {
		return SGTIN{}, errors.Errorf("%q needs a company prefix, item reference and serial", uri)
	}
	cp, iir, serial := parts[0], parts[1], parts[2]

	partition := 12 - len(cp)
	if partition < 0 || partition >= len(partitions) || len(cp)+len(iir) != 13 {
		return SGTIN{}, errors.Errorf("%q must split 13 digits into a 6 to 12 digit "+
			"company prefix and the indicator with item reference", uri)
	}
	if !isDigits(cp) || !isDigits(iir) {
		return SGTIN{}, errors.Errorf("%q has a non-numeric company prefix or item reference", uri)
	}
	companyPrefix, _ := strconv.Atoi(cp)
	itemRef := 0
	if len(iir) > 1 {
		itemRef, _ = strconv.Atoi(iir[1:])
	}

	return NewSGTIN(Other, partition, int(iir[0]-'0'), companyPrefix, itemRef, UnescapeGS1(serial))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
