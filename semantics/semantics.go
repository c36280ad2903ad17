/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package semantics renders the content of a Digital Link as a JSON-LD
// object using the GS1 web vocabulary.
package semantics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	digitallink "github.com/intel/rsp-sw-toolkit-im-suite-digitallink"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
)

// Mapper turns extracted data into linked data.
type Mapper struct {
	vocab *Vocabulary
	now   func() time.Time
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithVocabulary replaces the embedded vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(m *Mapper) { m.vocab = v }
}

// WithClock sets the clock the two-digit year century rule works from.
func WithClock(now func() time.Time) Option {
	return func(m *Mapper) { m.now = now }
}

// New returns a Mapper configured by opts.
func New(opts ...Option) (*Mapper, error) {
	m := &Mapper{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	if m.vocab == nil {
		v, err := DefaultVocabulary()
		if err != nil {
			return nil, err
		}
		m.vocab = v
	}
	return m, nil
}

// Map describes data, extracted from the Digital Link uri, as a JSON-LD
// object. AIs the vocabulary doesn't know are left out.
func (m *Mapper) Map(uri string, data digitallink.ExtractedData) (map[string]any, error) {
	ctx := make(map[string]any, len(m.vocab.Context))
	for k, v := range m.vocab.Context {
		ctx[k] = v
	}
	doc := map[string]any{
		"@context": ctx,
		"@id":      uri,
	}

	ais := make([]string, 0, len(data.GS1AIs))
	for ai := range data.GS1AIs {
		ais = append(ais, ai)
	}
	sort.Strings(ais)

	var types []string
	for _, ai := range ais {
		types = append(types, m.vocab.Types[ai]...)
	}
	if len(types) > 0 {
		doc["@type"] = dedupe(types)
	}

	for _, ai := range ais {
		p, ok := m.vocab.Property(ai)
		if !ok {
			continue
		}
		value := data.GS1AIs[ai]
		if p.Kind == DateRange {
			start, end, err := m.dateRange(ai, value)
			if err != nil {
				return nil, err
			}
			doc[p.Start] = start
			doc[p.End] = end
			continue
		}
		v, err := m.convert(ai, p, value)
		if err != nil {
			return nil, err
		}
		for _, predicate := range p.Predicates {
			doc[predicate] = v
		}
	}
	return doc, nil
}

func (m *Mapper) convert(ai string, p *Property, value string) (any, error) {
	switch p.Kind {
	case String:
		return value, nil
	case Class:
		if iri, ok := p.Values[value]; ok {
			return map[string]any{"@id": iri}, nil
		}
		if p.Template == "" {
			return value, nil
		}
		return map[string]any{"@id": strings.ReplaceAll(p.Template, "{value}", value)}, nil
	case Quantitative:
		q, err := scale(ai, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"@type":        "gs1:QuantitativeValue",
			"gs1:value":    q,
			"gs1:unitCode": p.Unit,
		}, nil
	case Date:
		d, err := m.date(ai, value)
		if err != nil {
			return nil, err
		}
		return typed(d.Format("2006-01-02"), "xsd:date"), nil
	case DateTime:
		d, err := m.dateTime(ai, value)
		if err != nil {
			return nil, err
		}
		return typed(d.Format("2006-01-02T15:04:05"), "xsd:dateTime"), nil
	}
	return nil, dlerror.New(dlerror.Unclassified, "AI %s has unsupported kind %q", ai, p.Kind)
}

func typed(value, datatype string) map[string]any {
	return map[string]any{"@value": value, "@type": datatype}
}

// scale places the decimal point of a measurement value, which is given by
// the fourth digit of its AI.
func scale(ai, value string) (float64, error) {
	if len(ai) != 4 || ai[3] < '0' || ai[3] > '9' {
		return 0, dlerror.New(dlerror.InvalidApplicationIdentifier,
			"AI %s has no decimal position digit", ai)
	}
	decimals := int(ai[3] - '0')
	if decimals > len(value) {
		value = strings.Repeat("0", decimals-len(value)) + value
	}
	text := value
	if decimals > 0 {
		text = value[:len(value)-decimals] + "." + value[len(value)-decimals:]
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, dlerror.Wrap(err, dlerror.SyntaxError, "AI %s value %q isn't a number", ai, value)
	}
	return f, nil
}

// date reads YYMMDD. DD of 00 means the last day of the month.
func (m *Mapper) date(ai, value string) (time.Time, error) {
	if len(value) != 6 {
		return time.Time{}, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q isn't a YYMMDD date", ai, value)
	}
	n, err := digits(ai, value, 2, 2, 2)
	if err != nil {
		return time.Time{}, err
	}
	year := m.fullYear(n[0])
	month, day := n[1], n[2]
	if month < 1 || month > 12 {
		return time.Time{}, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q has month %02d", ai, value, month)
	}
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day == 0 {
		day = last
	}
	if day > last {
		return time.Time{}, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q has day %02d", ai, value, day)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// dateTime reads YYMMDDHH with optional minutes and seconds.
func (m *Mapper) dateTime(ai, value string) (time.Time, error) {
	if len(value) != 8 && len(value) != 10 && len(value) != 12 {
		return time.Time{}, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q isn't a YYMMDDHH[MM[SS]] date and time", ai, value)
	}
	d, err := m.date(ai, value[:6])
	if err != nil {
		return time.Time{}, err
	}
	widths := make([]int, (len(value)-6)/2)
	for i := range widths {
		widths[i] = 2
	}
	n, err := digits(ai, value[6:], widths...)
	if err != nil {
		return time.Time{}, err
	}
	n = append(n, 0, 0)
	hour, minute, second := n[0], n[1], n[2]
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q has an invalid time", ai, value)
	}
	return d.Add(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second), nil
}

func (m *Mapper) dateRange(ai, value string) (any, any, error) {
	if len(value) != 6 && len(value) != 12 {
		return nil, nil, dlerror.New(dlerror.SyntaxError,
			"AI %s value %q isn't a YYMMDD[YYMMDD] date range", ai, value)
	}
	start, err := m.date(ai, value[:6])
	if err != nil {
		return nil, nil, err
	}
	end := start
	if len(value) == 12 {
		if end, err = m.date(ai, value[6:]); err != nil {
			return nil, nil, err
		}
	}
	return typed(start.Format("2006-01-02"), "xsd:date"),
		typed(end.Format("2006-01-02"), "xsd:date"), nil
}

// fullYear resolves a two-digit year to the one nearest the current year:
// up to 50 years ahead or 49 years back.
func (m *Mapper) fullYear(yy int) int {
	current := m.now().Year()
	century := current - current%100
	switch diff := yy - current%100; {
	case diff >= 51:
		century -= 100
	case diff <= -50:
		century += 100
	}
	return century + yy
}

// digits splits s into numbers of the given widths.
func digits(ai, s string, widths ...int) ([]int, error) {
	out := make([]int, 0, len(widths))
	for _, w := range widths {
		n, err := strconv.Atoi(s[:w])
		if err != nil || strings.ContainsAny(s[:w], "+-") {
			return nil, dlerror.New(dlerror.SyntaxError,
				"AI %s has non-digits in %q", ai, s)
		}
		out = append(out, n)
		s = s[w:]
	}
	return out, nil
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := s[:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
