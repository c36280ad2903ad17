/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package digitallink

import (
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/analysis"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
)

// AIValue is an AI with its title and value.
type AIValue struct {
	AI    string `json:"ai" yaml:"ai" cbor:"ai"`
	Title string `json:"title" yaml:"title" cbor:"title"`
	Value string `json:"value" yaml:"value" cbor:"value"`
}

// Structured sorts a link's AIs by their role. Other holds qualifiers that
// don't qualify the link's primary identifier.
type Structured struct {
	Identifiers    []AIValue `json:"identifiers" yaml:"identifiers" cbor:"identifiers"`
	Qualifiers     []AIValue `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty" cbor:"qualifiers,omitempty"`
	DataAttributes []AIValue `json:"dataAttributes,omitempty" yaml:"dataAttributes,omitempty" cbor:"dataAttributes,omitempty"`
	Other          []AIValue `json:"other,omitempty" yaml:"other,omitempty" cbor:"other,omitempty"`
}

// Analysis is the breakdown of a URI. The extended fields are only set when
// extended analysis is requested for a valid Digital Link.
type Analysis struct {
	*analysis.Result

	Structured    *Structured    `json:"structured,omitempty" yaml:"structured,omitempty" cbor:"structured,omitempty"`
	ElementString string         `json:"elementString,omitempty" yaml:"elementString,omitempty" cbor:"elementString,omitempty"`
	Data          *ExtractedData `json:"data,omitempty" yaml:"data,omitempty" cbor:"data,omitempty"`
}

// AnalyseURI breaks a URI into its Digital Link parts and detects its form.
// Plain analysis never fails; a URI that isn't a Digital Link has Form
// Unknown. Extended analysis also extracts the link's content, so it fails
// the way DigitalLinkToData does.
func (c *Codec) AnalyseURI(uri string, extended bool) (*Analysis, error) {
	a := &Analysis{Result: analysis.Analyse(c.table, uri)}
	c.logger.Debug("analysed uri", "form", a.Form.String(), "stem", a.Stem)
	if !extended {
		return a, nil
	}

	data, err := c.extract(a.Result)
	if err != nil {
		return nil, c.fail("AnalyseURI", uri, err)
	}
	es, err := elementstring.Build(c.table, data.GS1AIs, true)
	if err != nil {
		return nil, c.fail("AnalyseURI", uri, err)
	}
	a.Data = &data
	a.ElementString = es
	a.Structured = structure(c.table, data.GS1AIs)
	return a, nil
}

func structure(table *aitable.Table, ais map[string]string) *Structured {
	keys := make([]string, 0, len(ais))
	for ai := range ais {
		keys = append(keys, ai)
	}
	aitable.SortNumeric(keys)

	s := &Structured{}
	qualifies := map[string]bool{}
	for _, ai := range keys {
		e, _ := table.Lookup(ai)
		if e.Kind != aitable.Identifier {
			continue
		}
		s.Identifiers = append(s.Identifiers, AIValue{ai, e.Title, ais[ai]})
		for _, q := range e.Qualifiers() {
			qualifies[q] = true
		}
	}
	for _, ai := range keys {
		e, _ := table.Lookup(ai)
		v := AIValue{ai, e.Title, ais[ai]}
		switch {
		case e.Kind == aitable.Identifier:
		case e.Kind == aitable.Qualifier && qualifies[ai]:
			s.Qualifiers = append(s.Qualifiers, v)
		case e.Kind == aitable.DataAttribute:
			s.DataAttributes = append(s.DataAttributes, v)
		default:
			s.Other = append(s.Other, v)
		}
	}
	return s
}
