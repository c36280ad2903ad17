/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package aitable holds the GS1 Application Identifier metadata the Digital
// Link codecs consume: each AI's kind, value format, check digit position and
// permitted qualifier sequences, the table mapping an AI's first two digits to
// its full length, and the optimisation table of the compressed format.
//
// Tables are read-only once loaded. Default returns the table built from the
// embedded aitable.jsonc; Load builds one from any document with the same
// layout, which is how tests substitute smaller tables.
package aitable

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

//go:embed aitable.jsonc
var embedded []byte

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return Load(embedded)
})

// Default returns the table built from the embedded AI metadata. It's parsed
// on first use; later calls return the same Table.
func Default() (*Table, error) {
	return defaultTable()
}

// Kind is an AI's role in a Digital Link.
type Kind int

const (
	// DataAttribute AIs go to the query string.
	DataAttribute = Kind(iota)
	// Identifier AIs are primary keys, the first path segment pair.
	Identifier
	// Qualifier AIs refine an identifier and follow it in the path.
	Qualifier
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Qualifier:
		return "qualifier"
	case DataAttribute:
		return "data attribute"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Charset is the character set of an alphanumeric segment.
type Charset int

const (
	Digits = Charset(iota)
	CSet82
	CSet39
	CSet64
)

var charsetClasses = [...]string{
	Digits: `\d`,
	CSet82: `[\x21-\x22\x25-\x3F\x41-\x5A\x5F\x61-\x7A]`,
	CSet39: `[\x23\x2D\x2F\x30-\x39\x41-\x5A]`,
	CSet64: `[A-Za-z0-9\-_=]`,
}

// Segment is one slice of an AI's value format: a fixed or maximum length
// run of digits or of characters from one of the GS1 character sets.
type Segment struct {
	Alphanumeric bool
	Fixed        bool
	Length       int
	Charset      Charset
}

func (s Segment) String() string {
	sb := &strings.Builder{}
	if s.Alphanumeric {
		sb.WriteByte('X')
	} else {
		sb.WriteByte('N')
	}
	if !s.Fixed {
		sb.WriteString("..")
	}
	sb.WriteString(strconv.Itoa(s.Length))
	switch s.Charset {
	case CSet39:
		sb.WriteString(":39")
	case CSet64:
		sb.WriteString(":64")
	}
	return sb.String()
}

// Entry is the metadata of a single AI.
type Entry struct {
	AI    string
	Title string
	Kind  Kind
	// Fixed is true for AIs with a predefined length, which are never
	// followed by a group separator in an element string.
	Fixed bool
	// CheckDigit is the 1-based position of the mod-10 check digit within
	// the value, or 0 if the value has none.
	CheckDigit int
	Segments   []Segment
	Pattern    *regexp.Regexp
	// Sequences lists the mutually exclusive qualifier sequences an
	// identifier permits, each in canonical order.
	Sequences [][]string
	// Decimals is the implied decimal point position for AIs defined with a
	// trailing 'n', and -1 for all others.
	Decimals int
}

// Qualifiers returns every qualifier the entry's sequences mention, in the
// order they first appear.
func (e *Entry) Qualifiers() []string {
	var qs []string
	seen := map[string]bool{}
	for _, seq := range e.Sequences {
		for _, q := range seq {
			if !seen[q] {
				seen[q] = true
				qs = append(qs, q)
			}
		}
	}
	return qs
}

// FixedLength returns the length of the entry's value if every segment has a
// fixed length, or 0 if any of them is variable.
func (e *Entry) FixedLength() int {
	n := 0
	for _, s := range e.Segments {
		if !s.Fixed {
			return 0
		}
		n += s.Length
	}
	return n
}

// MaxLength returns the longest value the entry's format permits.
func (e *Entry) MaxLength() int {
	n := 0
	for _, s := range e.Segments {
		n += s.Length
	}
	return n
}

// Table is a read-only set of AI metadata.
type Table struct {
	entries       map[string]*Entry
	prefixLengths map[string]int
	optimisations map[string][]string
	codes         []string
}

// Lookup returns the metadata of the given AI.
func (t *Table) Lookup(ai string) (*Entry, bool) {
	e, ok := t.entries[ai]
	return e, ok
}

// PrefixLength returns the total length of AIs that start with the given two
// digits.
func (t *Table) PrefixLength(firstTwo string) (int, bool) {
	n, ok := t.prefixLengths[firstTwo]
	return n, ok
}

// Optimisation returns the AIs an optimisation code stands for, in the order
// their values are encoded.
func (t *Table) Optimisation(code string) ([]string, bool) {
	ais, ok := t.optimisations[code]
	return ais, ok
}

// Optimisations returns every optimisation code, sorted.
func (t *Table) Optimisations() []string {
	return append([]string(nil), t.codes...)
}

// Sequences returns the qualifier sequences permitted after an identifier.
func (t *Table) Sequences(identifier string) [][]string {
	if e, ok := t.entries[identifier]; ok {
		return e.Sequences
	}
	return nil
}

// IsIdentifier returns true if ai is a known primary identifier.
func (t *Table) IsIdentifier(ai string) bool {
	e, ok := t.entries[ai]
	return ok && e.Kind == Identifier
}

// AIs returns every known AI code in ascending order.
func (t *Table) AIs() []string {
	ais := make([]string, 0, len(t.entries))
	for ai := range t.entries {
		ais = append(ais, ai)
	}
	sort.Strings(ais)
	return ais
}

// SortNumeric sorts AI codes by their numeric value, so 10 comes before 254
// and 3103 after both.
func SortNumeric(ais []string) {
	sort.Slice(ais, func(i, j int) bool {
		a, _ := strconv.Atoi(ais[i])
		b, _ := strconv.Atoi(ais[j])
		if a != b {
			return a < b
		}
		return ais[i] < ais[j]
	})
}

type tableDocument struct {
	PrefixLengths map[string]int      `json:"prefixLengths"`
	Optimisations map[string][]string `json:"optimisations"`
	AIs           []entryDocument     `json:"ais"`
}

type entryDocument struct {
	AI         string     `json:"ai"`
	Title      string     `json:"title"`
	Type       string     `json:"type"`
	Fixed      bool       `json:"fixed"`
	CheckDigit int        `json:"checkDigit"`
	Format     []string   `json:"format"`
	Pattern    string     `json:"pattern"`
	Sequences  [][]string `json:"sequences"`
	Decimals   *int       `json:"decimals"`
}

const defaultDecimals = 5

// Load parses a JSONC table document and validates it: optimisation codes
// must be two hex nibbles that can't be mistaken for an AI prefix or the
// non-GS1 flag, and every AI must agree with the prefix length table.
func Load(data []byte) (*Table, error) {
	var doc tableDocument
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse AI table")
	}

	t := &Table{
		entries:       map[string]*Entry{},
		prefixLengths: map[string]int{},
		optimisations: map[string][]string{},
	}

	for prefix, n := range doc.PrefixLengths {
		if !isDigits(prefix) || len(prefix) != 2 || n < 2 || n > 4 {
			return nil, errors.Errorf("invalid prefix length %q: %d", prefix, n)
		}
		t.prefixLengths[prefix] = n
	}

	for i := range doc.AIs {
		entries, err := buildEntries(&doc.AIs[i])
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if _, dup := t.entries[e.AI]; dup {
				return nil, errors.Errorf("AI %s is defined twice", e.AI)
			}
			if n, ok := t.prefixLengths[e.AI[:2]]; !ok || n != len(e.AI) {
				return nil, errors.Errorf("AI %s doesn't match the prefix "+
					"length table (%d)", e.AI, n)
			}
			t.entries[e.AI] = e
		}
	}

	for _, e := range t.entries {
		for _, seq := range e.Sequences {
			for _, q := range seq {
				if qe, ok := t.entries[q]; !ok || qe.Kind != Qualifier {
					return nil, errors.Errorf("AI %s lists %s as a qualifier, "+
						"but it isn't a known qualifier", e.AI, q)
				}
			}
		}
	}

	for code, ais := range doc.Optimisations {
		if err := checkCode(code); err != nil {
			return nil, err
		}
		if len(ais) < 2 {
			return nil, errors.Errorf("optimisation %s must name at least two AIs", code)
		}
		for _, ai := range ais {
			if _, ok := t.entries[ai]; !ok {
				return nil, errors.Errorf("optimisation %s names unknown AI %s",
					code, ai)
			}
		}
		t.optimisations[code] = append([]string(nil), ais...)
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)

	return t, nil
}

func checkCode(code string) error {
	if len(code) != 2 {
		return errors.Errorf("optimisation code %q must be two characters", code)
	}
	for i := 0; i < 2; i++ {
		if strings.IndexByte("0123456789ABCDEF", code[i]) < 0 {
			return errors.Errorf("optimisation code %q must be upper-case hex", code)
		}
	}
	if isDigits(code) {
		return errors.Errorf("optimisation code %q is an AI prefix", code)
	}
	if code[0] == 'F' {
		return errors.Errorf("optimisation code %q collides with the "+
			"non-GS1 pair flag", code)
	}
	return nil
}

// buildEntries returns the entries defined by a document entry: one, or one
// per decimal position if the AI ends in 'n'.
func buildEntries(doc *entryDocument) ([]*Entry, error) {
	kind, ok := map[string]Kind{"I": Identifier, "Q": Qualifier, "D": DataAttribute}[doc.Type]
	if !ok {
		return nil, errors.Errorf("AI %s has unknown type %q", doc.AI, doc.Type)
	}

	segments, err := parseFormat(doc.Format)
	if err != nil {
		return nil, errors.Wrapf(err, "AI %s", doc.AI)
	}

	var pattern *regexp.Regexp
	if doc.Pattern != "" {
		pattern, err = regexp.Compile(doc.Pattern)
	} else {
		pattern, err = regexp.Compile(segmentPattern(segments))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "AI %s has an invalid pattern", doc.AI)
	}

	template := Entry{
		Title:      doc.Title,
		Kind:       kind,
		Fixed:      doc.Fixed,
		CheckDigit: doc.CheckDigit,
		Segments:   segments,
		Pattern:    pattern,
		Sequences:  doc.Sequences,
		Decimals:   -1,
	}
	if doc.CheckDigit < 0 || doc.CheckDigit > template.MaxLength() {
		return nil, errors.Errorf("AI %s has check digit position %d beyond "+
			"its %d characters", doc.AI, doc.CheckDigit, template.MaxLength())
	}

	if !strings.HasSuffix(doc.AI, "n") {
		if !isDigits(doc.AI) || len(doc.AI) < 2 || len(doc.AI) > 4 {
			return nil, errors.Errorf("invalid AI %q", doc.AI)
		}
		e := template
		e.AI = doc.AI
		return []*Entry{&e}, nil
	}

	base := strings.TrimSuffix(doc.AI, "n")
	if !isDigits(base) || len(base) != 3 {
		return nil, errors.Errorf("invalid AI family %q", doc.AI)
	}
	decimals := defaultDecimals
	if doc.Decimals != nil {
		decimals = *doc.Decimals
	}
	if decimals < 0 || decimals > 9 {
		return nil, errors.Errorf("AI family %s has %d decimals", doc.AI, decimals)
	}
	entries := make([]*Entry, 0, decimals+1)
	for n := 0; n <= decimals; n++ {
		e := template
		e.AI = base + strconv.Itoa(n)
		e.Decimals = n
		entries = append(entries, &e)
	}
	return entries, nil
}

var formatToken = regexp.MustCompile(`^([NX])(\.\.)?([1-9]\d*)(?::(39|64))?$`)

func parseFormat(format []string) ([]Segment, error) {
	if len(format) == 0 {
		return nil, errors.New("missing format")
	}
	segments := make([]Segment, 0, len(format))
	for _, token := range format {
		m := formatToken.FindStringSubmatch(token)
		if m == nil {
			return nil, errors.Errorf("invalid format token %q", token)
		}
		n, _ := strconv.Atoi(m[3])
		s := Segment{Alphanumeric: m[1] == "X", Fixed: m[2] == "", Length: n}
		switch {
		case !s.Alphanumeric && m[4] != "":
			return nil, errors.Errorf("numeric format %q can't name a charset", token)
		case !s.Alphanumeric:
			s.Charset = Digits
		case m[4] == "39":
			s.Charset = CSet39
		case m[4] == "64":
			s.Charset = CSet64
		default:
			s.Charset = CSet82
		}
		segments = append(segments, s)
	}
	return segments, nil
}

// segmentPattern derives a value regex from its segments. A variable segment
// following other segments may be empty.
func segmentPattern(segments []Segment) string {
	sb := &strings.Builder{}
	sb.WriteByte('^')
	for i, s := range segments {
		sb.WriteString(charsetClasses[s.Charset])
		switch {
		case s.Fixed:
			fmt.Fprintf(sb, "{%d}", s.Length)
		case i == 0:
			fmt.Fprintf(sb, "{1,%d}", s.Length)
		default:
			fmt.Fprintf(sb, "{0,%d}", s.Length)
		}
	}
	sb.WriteByte('$')
	return sb.String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
