/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package elementstring converts between GS1 element strings and AI maps.
//
// An element string is the concatenation of AIs and their values as read
// from a barcode. AIs with a predefined length are simply followed by the
// next AI; all others are terminated by FNC1, which is transmitted as the
// ASCII group separator (GS, 0x1D). The bracketed form, "(01)...(10)...",
// is the human readable rendering of the same data.
package elementstring

import (
	"regexp"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
)

// GS is the group separator that stands in for FNC1.
const GS = "\x1d"

var bracketedAI = regexp.MustCompile(`\((\d{2,4})\)`)

// BracketedToFNC1 converts a bracketed element string to its FNC1 form.
//
// The value of a predefined-length AI must have exactly the table's length;
// otherwise it's a syntax error, unless noValidation is set, in which case
// the value is kept and terminated like a variable-length one.
func BracketedToFNC1(table *aitable.Table, s string, noValidation bool) (string, error) {
	markers := bracketedAI.FindAllStringSubmatchIndex(s, -1)
	if len(markers) == 0 || markers[0][0] != 0 {
		return "", dlerror.New(dlerror.SyntaxError,
			"element string %q must start with a bracketed AI", s)
	}

	sb := &strings.Builder{}
	for i, m := range markers {
		ai := s[m[2]:m[3]]
		end := len(s)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		value := s[m[1]:end]

		e, ok := table.Lookup(ai)
		if !ok && !noValidation {
			return "", dlerror.New(dlerror.InvalidApplicationIdentifier,
				"unknown AI (%s) in element string %q", ai, s)
		}

		sb.WriteString(ai)
		sb.WriteString(value)
		if !ok || !e.Fixed {
			sb.WriteString(GS)
			continue
		}

		if n := e.FixedLength(); len(value) != n {
			if !noValidation {
				return "", dlerror.New(dlerror.SyntaxError,
					"AI (%s) needs exactly %d characters, but has %q",
					ai, n, value)
			}
			sb.WriteString(GS)
		}
	}
	return strings.TrimSuffix(sb.String(), GS), nil
}

// PadGTIN left-pads GTIN-8, GTIN-12 and GTIN-13 values of AIs 01 and 02
// with 0s to the 14 digits of a GTIN-14. Other values are returned as-is.
func PadGTIN(ai, value string) string {
	if ai != "01" && ai != "02" {
		return value
	}
	switch len(value) {
	case 8, 12, 13:
		return strings.Repeat("0", 14-len(value)) + value
	}
	return value
}

// Parse converts an element string, bracketed or FNC1, to an AI map.
//
// Unless noValidation is set, an unknown AI or any fatal exception from the
// parser is an error. GTIN values are padded to 14 digits.
func Parse(table *aitable.Table, parser Parser, s string, noValidation bool) (map[string]string, error) {
	fnc1 := s
	if strings.HasPrefix(s, "(") {
		var err error
		if fnc1, err = BracketedToFNC1(table, s, noValidation); err != nil {
			return nil, err
		}
	}

	pairs, exceptions := parser.Parse(fnc1)
	if !noValidation {
		for _, ex := range exceptions {
			if ex.Fatal {
				return nil, dlerror.New(dlerror.InvalidApplicationIdentifier,
					"element string %q: %s", s, ex)
			}
		}
	}
	if len(pairs) == 0 {
		return nil, dlerror.New(dlerror.InvalidApplicationIdentifier,
			"no AIs recognised in element string %q", s)
	}

	ais := make(map[string]string, len(pairs))
	for _, p := range pairs {
		ais[p.AI] = PadGTIN(p.AI, p.Value)
	}
	return ais, nil
}

// Order returns the AIs of ais in element string order: the primary
// identifier, its qualifiers in their declared order, then everything else
// in ascending order. The primary identifier is the lowest identifier
// present; there may be none.
func Order(table *aitable.Table, ais map[string]string) ([]string, error) {
	keys := make([]string, 0, len(ais))
	for ai := range ais {
		if _, ok := table.Lookup(ai); !ok {
			return nil, dlerror.New(dlerror.InvalidApplicationIdentifier,
				"unknown AI %q", ai)
		}
		keys = append(keys, ai)
	}
	aitable.SortNumeric(keys)

	var primary *aitable.Entry
	for _, ai := range keys {
		if e, _ := table.Lookup(ai); e.Kind == aitable.Identifier {
			primary = e
			break
		}
	}
	if primary == nil {
		return keys, nil
	}

	ordered := make([]string, 0, len(keys))
	used := map[string]bool{primary.AI: true}
	ordered = append(ordered, primary.AI)
	for _, q := range primary.Qualifiers() {
		if _, ok := ais[q]; ok && !used[q] {
			used[q] = true
			ordered = append(ordered, q)
		}
	}
	for _, ai := range keys {
		if !used[ai] {
			ordered = append(ordered, ai)
		}
	}
	return ordered, nil
}

// Build renders ais as an element string.
//
// With brackets, each AI is written as "(ai)value" in Order. Without them,
// predefined-length AIs come first, then variable-length ones, each
// terminated by GS except the last; both groups keep their relative Order.
func Build(table *aitable.Table, ais map[string]string, brackets bool) (string, error) {
	ordered, err := Order(table, ais)
	if err != nil {
		return "", err
	}

	sb := &strings.Builder{}
	if brackets {
		for _, ai := range ordered {
			sb.WriteString("(" + ai + ")" + ais[ai])
		}
		return sb.String(), nil
	}

	var variable []string
	for _, ai := range ordered {
		if e, _ := table.Lookup(ai); !e.Fixed {
			variable = append(variable, ai)
			continue
		}
		sb.WriteString(ai + ais[ai])
	}
	for i, ai := range variable {
		sb.WriteString(ai + ais[ai])
		if i < len(variable)-1 {
			sb.WriteString(GS)
		}
	}
	return sb.String(), nil
}
