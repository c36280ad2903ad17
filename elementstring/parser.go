/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package elementstring

import (
	"fmt"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/validate"
)

// Pair is an AI and its value as found in an element string.
type Pair struct {
	AI    string
	Value string
}

// Exception is a problem a Parser found. A fatal exception means the pairs
// can't be trusted.
type Exception struct {
	Fatal    bool
	Position int
	Message  string
}

func (ex Exception) String() string {
	return fmt.Sprintf("%s at %d", ex.Message, ex.Position)
}

// Parser splits an FNC1 element string into AI/value pairs.
type Parser interface {
	Parse(fnc1 string) ([]Pair, []Exception)
}

// symbologyIDs are the prefixes scanners use to announce GS1 data carriers.
var symbologyIDs = []string{"]C1", "]d2", "]e0", "]Q3", "]J1"}

// TableParser parses element strings using the prefix length table and the
// AI formats of a Table.
type TableParser struct {
	Table *aitable.Table
}

// Parse walks s one AI at a time. Parsing stops at the first AI it can't
// determine the length of; everything before it is returned.
func (p TableParser) Parse(s string) (pairs []Pair, exceptions []Exception) {
	pos := 0
	for _, id := range symbologyIDs {
		if strings.HasPrefix(s, id) {
			pos = len(id)
			break
		}
	}
	if strings.HasPrefix(s[pos:], GS) {
		pos++
	}

	fatal := func(at int, format string, args ...interface{}) {
		exceptions = append(exceptions, Exception{Fatal: true, Position: at,
			Message: fmt.Sprintf(format, args...)})
	}

	seen := map[string]string{}
	for pos < len(s) {
		start := pos
		if pos+2 > len(s) {
			fatal(pos, "truncated AI %q", s[pos:])
			return
		}
		n, ok := p.Table.PrefixLength(s[pos : pos+2])
		if !ok || pos+n > len(s) {
			fatal(pos, "unrecognised AI prefix %q", s[pos:pos+2])
			return
		}
		ai := s[pos : pos+n]
		e, ok := p.Table.Lookup(ai)
		if !ok {
			fatal(pos, "unrecognised AI %q", ai)
			return
		}
		pos += n

		var value string
		if fixed := e.FixedLength(); e.Fixed && fixed > 0 {
			end := pos + fixed
			if gs := strings.Index(s[pos:], GS); gs >= 0 && pos+gs < end {
				end = pos + gs
			}
			if end > len(s) {
				end = len(s)
			}
			value = s[pos:end]
			pos = end
			if len(value) != fixed {
				fatal(start, "AI (%s) needs %d characters, but has %q",
					ai, fixed, value)
			}
		} else {
			end := strings.Index(s[pos:], GS)
			if end < 0 {
				end = len(s) - pos
			}
			value = s[pos : pos+end]
			pos += end
		}
		// some scanners send FNC1 after predefined-length AIs too
		if strings.HasPrefix(s[pos:], GS) {
			pos++
		}

		if err := validate.VerifySyntax(e, value); err != nil {
			fatal(start, "%v", err)
		} else if err := validate.VerifyCheckDigit(e, value); err != nil {
			fatal(start, "%v", err)
		}
		if prev, dup := seen[ai]; dup {
			if prev != value {
				fatal(start, "AI (%s) repeats with a different value", ai)
			}
			continue
		}
		seen[ai] = value
		pairs = append(pairs, Pair{AI: ai, Value: value})
	}
	return
}
