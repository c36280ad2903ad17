/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package analysis decomposes a URI into the parts of a GS1 Digital Link
// and decides which of the three Digital Link forms it has, if any.
//
// A Digital Link's GS1 path can follow any number of stem segments, so the
// path is scanned from the right for the segment naming the primary
// identifier. Everything left of it belongs to the URI stem.
//
// Analysis never fails: a URI that isn't a Digital Link has Form Unknown.
// Values are left exactly as they appear in the URI, still percent-encoded.
package analysis

import (
	"strconv"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
)

// Form is the layout of a Digital Link. Forms are ordered by how much of the
// link is compressed.
type Form int

const (
	Unknown = Form(iota)
	Uncompressed
	PartiallyCompressed
	Compressed
)

func (f Form) String() string {
	switch f {
	case Unknown:
		return "unknown"
	case Uncompressed:
		return "uncompressed"
	case PartiallyCompressed:
		return "partially compressed"
	case Compressed:
		return "compressed"
	}
	return "Form(" + strconv.Itoa(int(f)) + ")"
}

// ParseForm accepts the names String returns, plus the shorthands
// "none", "partial" and "full".
func ParseForm(s string) (Form, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uncompressed", "none":
		return Uncompressed, true
	case "partially compressed", "partially-compressed", "partial":
		return PartiallyCompressed, true
	case "compressed", "full":
		return Compressed, true
	}
	return Unknown, false
}

// Pair is a key and its raw value.
type Pair struct {
	Key   string
	Value string
}

// Result is the breakdown of one URI.
type Result struct {
	URI string
	// Scheme is "http", "https" or empty.
	Scheme   string
	Domain   string
	PathInfo string
	// Stem is the scheme, domain and any stem path, without a trailing '/'.
	Stem string
	// StemPath holds the path segments that precede the GS1 path.
	StemPath []string
	// Relevant holds the GS1 path segments: the primary identifier and its
	// value, then qualifier pairs or a single compressed segment.
	Relevant    []string
	QueryString string
	Fragment    string
	Form        Form

	// PathCandidates pairs the uncompressed AIs of the path, in path order.
	PathCandidates []Pair
	// QueryGS1 holds query pairs with numeric keys, in query order.
	QueryGS1 []Pair
	// QueryNonGS1 holds the remaining query pairs, in query order.
	QueryNonGS1 []Pair
	// OtherQuery holds query tokens without an '='.
	OtherQuery []string
}

// Compressed returns the compressed path segment of a compressed or
// partially compressed link.
func (r *Result) Compressed() string {
	switch r.Form {
	case Compressed:
		return r.Relevant[0]
	case PartiallyCompressed:
		return r.Relevant[2]
	}
	return ""
}

// Analyse breaks uri into its Digital Link parts and detects its form.
func Analyse(table *aitable.Table, uri string) *Result {
	r := &Result{URI: uri}

	rest := uri
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		r.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		r.QueryString = rest[i+1:]
		rest = rest[:i]
	}
	rest = strings.TrimSuffix(rest, "/")

	cursor := 0
	switch lower := strings.ToLower(rest); {
	case strings.HasPrefix(lower, "https://"):
		r.Scheme, cursor = "https", len("https://")
	case strings.HasPrefix(lower, "http://"):
		r.Scheme, cursor = "http", len("http://")
	}

	hostAndPath := rest[cursor:]
	r.Domain = hostAndPath
	if i := strings.IndexByte(hostAndPath, '/'); i >= 0 {
		r.Domain = hostAndPath[:i]
		r.PathInfo = hostAndPath[i:]
	}

	var segments []string
	if r.PathInfo != "" {
		segments = strings.Split(r.PathInfo[1:], "/")
	}

	start := findIdentifier(table, segments)
	if start < 0 {
		r.StemPath = segments
	} else {
		r.StemPath = segments[:start]
		r.Relevant = segments[start:]
		r.PathCandidates = pathCandidates(r.Relevant)
	}

	r.parseQuery()
	r.Form = r.detectForm(table, segments)
	if r.Form == Compressed {
		r.StemPath = segments[:len(segments)-1]
		r.Relevant = segments[len(segments)-1:]
		r.PathCandidates = nil
	}

	stem := &strings.Builder{}
	stem.WriteString(rest[:cursor])
	stem.WriteString(r.Domain)
	for _, s := range r.StemPath {
		stem.WriteString("/" + s)
	}
	r.Stem = stem.String()

	return r
}

// findIdentifier scans segments from the right for a primary identifier that
// is followed either by value/AI pairs or by a value and one more segment.
// A qualifier value can look like an identifier code, so the first pick is
// the rightmost identifier whose value fits its format; failing that, the
// rightmost identifier at all. It returns -1 if there's no such segment.
func findIdentifier(table *aitable.Table, segments []string) int {
	fallback := -1
	for i := len(segments) - 2; i >= 0; i-- {
		remaining := len(segments) - i
		if remaining%2 != 0 && remaining != 3 {
			continue
		}
		e, ok := table.Lookup(segments[i])
		if !ok || e.Kind != aitable.Identifier {
			continue
		}
		if fitsFormat(e, segments[i+1]) {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

// fitsFormat reports whether a raw path value matches the entry's pattern.
func fitsFormat(e *aitable.Entry, raw string) bool {
	value, err := charclass.PercentDecode(raw)
	if err != nil {
		return false
	}
	return e.Pattern.MatchString(elementstring.PadGTIN(e.AI, value))
}

// pathCandidates pairs keys with values. With an odd number of segments the
// last one is compressed data, not a key.
func pathCandidates(relevant []string) []Pair {
	n := len(relevant) &^ 1
	pairs := make([]Pair, 0, n/2)
	for i := 0; i < n; i += 2 {
		pairs = append(pairs, Pair{Key: relevant[i], Value: relevant[i+1]})
	}
	return pairs
}

func (r *Result) parseQuery() {
	if r.QueryString == "" {
		return
	}
	for _, token := range strings.Split(strings.ReplaceAll(r.QueryString, ";", "&"), "&") {
		if token == "" {
			continue
		}
		i := strings.IndexByte(token, '=')
		if i < 0 {
			r.OtherQuery = append(r.OtherQuery, token)
			continue
		}
		p := Pair{Key: token[:i], Value: token[i+1:]}
		if charclass.IsNumeric(p.Key) {
			r.QueryGS1 = append(r.QueryGS1, p)
		} else {
			r.QueryNonGS1 = append(r.QueryNonGS1, p)
		}
	}
}

// detectForm applies the form rules in order; the first match wins.
func (r *Result) detectForm(table *aitable.Table, segments []string) Form {
	n := len(r.Relevant)
	if n >= 2 && identifierMatches(table, r.Relevant[0], r.Relevant[1]) {
		if n%2 == 0 {
			return Uncompressed
		}
		if n == 3 && charclass.IsSafe64(r.Relevant[2]) {
			return PartiallyCompressed
		}
	}
	if len(segments) > 0 && r.Scheme != "" &&
		charclass.IsSafe64(segments[len(segments)-1]) {
		return Compressed
	}
	return Unknown
}

func identifierMatches(table *aitable.Table, ai, raw string) bool {
	e, ok := table.Lookup(ai)
	if !ok {
		return false
	}
	value, err := charclass.PercentDecode(raw)
	if err != nil {
		return false
	}
	return e.Pattern.MatchString(elementstring.PadGTIN(ai, value))
}
