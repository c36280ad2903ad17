/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package digitallink

import (
	"sort"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/compress"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/validate"
)

// BuildOptions control how a Digital Link is built.
type BuildOptions struct {
	// Stem is the URI stem; it defaults to https://id.gs1.org.
	Stem string
	// Form defaults to Uncompressed.
	Form             Form
	UseOptimisations bool
	// NonGS1 pairs go to the query string, sorted by key, unless
	// CompressNonGS1 packs them into the compressed data. They're only
	// packed in the compressed forms.
	NonGS1         map[string]string
	CompressNonGS1 bool
	// OtherQuery is query content that isn't key=value pairs, such as
	// "flag&other". It's appended as-is.
	OtherQuery string
	// Fragment is appended after '#'.
	Fragment string
}

// classified holds AIs sorted into the parts of a Digital Link.
type classified struct {
	identifier string
	// qualifiers of the identifier, in declared order
	qualifiers []string
	// everything that goes to the query string, in ascending order
	query []string
}

// classify sorts ais into path and query parts and validates them: there
// must be exactly one identifier, every value must be valid for its AI, and
// the identifier's qualifiers must form one of its sequences.
func classify(table *aitable.Table, ais map[string]string) (classified, error) {
	var cl classified
	var identifiers []string
	for ai, value := range ais {
		e, ok := table.Lookup(ai)
		if !ok {
			return cl, dlerror.New(dlerror.InvalidApplicationIdentifier,
				"unknown AI %q", ai)
		}
		if err := validate.VerifySyntax(e, value); err != nil {
			return cl, err
		}
		if err := validate.VerifyCheckDigit(e, value); err != nil {
			return cl, err
		}
		if e.Kind == aitable.Identifier {
			identifiers = append(identifiers, ai)
		}
	}
	if len(identifiers) != 1 {
		sort.Strings(identifiers)
		return cl, dlerror.New(dlerror.InvalidDigitalLink,
			"a Digital Link needs exactly one primary identifier, but has %v",
			identifiers)
	}
	cl.identifier = identifiers[0]

	id, _ := table.Lookup(cl.identifier)
	isQualifier := map[string]bool{}
	for _, q := range id.Qualifiers() {
		if _, ok := ais[q]; ok {
			cl.qualifiers = append(cl.qualifiers, q)
			isQualifier[q] = true
		}
	}
	if err := validate.VerifySequence(table, cl.identifier, cl.qualifiers); err != nil {
		return cl, err
	}

	for ai := range ais {
		if ai != cl.identifier && !isQualifier[ai] {
			cl.query = append(cl.query, ai)
		}
	}
	aitable.SortNumeric(cl.query)
	return cl, nil
}

// DataToDigitalLink builds a Digital Link from AIs.
//
// GTIN-8, -12 and -13 values are padded to 14 digits. The AIs must include
// exactly one primary identifier; its qualifiers go to the path, and all
// other AIs to the query string, unless they're packed by compression.
func (c *Codec) DataToDigitalLink(ais map[string]string, opts BuildOptions) (string, error) {
	uri, err := c.buildLink(ais, opts)
	if err != nil {
		return "", c.fail("DataToDigitalLink", elementStringOrKeys(c.table, ais), err)
	}
	c.logger.Debug("built digital link", "form", opts.Form.String(), "uri", uri)
	return uri, nil
}

func (c *Codec) buildLink(ais map[string]string, opts BuildOptions) (string, error) {
	stem, err := validate.NormaliseStem(opts.Stem)
	if err != nil {
		return "", err
	}

	padded := make(map[string]string, len(ais))
	for ai, value := range ais {
		padded[ai] = elementstring.PadGTIN(ai, value)
	}
	cl, err := classify(c.table, padded)
	if err != nil {
		return "", err
	}

	nonGS1 := make(map[string]string, len(opts.NonGS1))
	for k, v := range opts.NonGS1 {
		if err := validate.VerifyNonGS1Pair(k, charclass.QueryValueEncode(v)); err != nil {
			return "", err
		}
		nonGS1[k] = v
	}
	if err := validate.VerifyOtherQuery(opts.OtherQuery); err != nil {
		return "", err
	}
	if err := validate.VerifyFragment(opts.Fragment); err != nil {
		return "", err
	}

	form := opts.Form
	if form == Unknown {
		form = Uncompressed
	}
	packNonGS1 := opts.CompressNonGS1 && len(nonGS1) > 0 && form != Uncompressed

	sb := &strings.Builder{}
	sb.WriteString(stem)
	var query []string

	switch form {
	case Uncompressed:
		writePath(sb, cl.identifier, padded[cl.identifier])
		for _, q := range cl.qualifiers {
			writePath(sb, q, padded[q])
		}
		query = queryPairs(cl.query, padded)

	case PartiallyCompressed:
		rest := map[string]string{}
		for ai, value := range padded {
			if ai != cl.identifier {
				rest[ai] = value
			}
		}
		writePath(sb, cl.identifier, padded[cl.identifier])
		if len(rest) == 0 && !packNonGS1 {
			// nothing left to pack
			break
		}
		var packed map[string]string
		if packNonGS1 {
			packed = nonGS1
		}
		text, err := compress.Encode(c.table, rest, opts.UseOptimisations, packed)
		if err != nil {
			return "", err
		}
		sb.WriteString("/" + text)

	case Compressed:
		var packed map[string]string
		if packNonGS1 {
			packed = nonGS1
		}
		text, err := compress.Encode(c.table, padded, opts.UseOptimisations, packed)
		if err != nil {
			return "", err
		}
		sb.WriteString("/" + text)

	default:
		return "", dlerror.New(dlerror.InvalidDigitalLink,
			"unsupported Digital Link form %v", form)
	}

	if !packNonGS1 {
		keys := make([]string, 0, len(nonGS1))
		for k := range nonGS1 {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			query = append(query, k+"="+charclass.QueryValueEncode(nonGS1[k]))
		}
	}
	if opts.OtherQuery != "" {
		query = append(query, opts.OtherQuery)
	}
	if len(query) > 0 {
		sb.WriteString("?" + strings.Join(query, "&"))
	}
	if opts.Fragment != "" {
		sb.WriteString("#" + opts.Fragment)
	}
	return sb.String(), nil
}

func writePath(sb *strings.Builder, ai, value string) {
	sb.WriteString("/" + ai + "/" + charclass.PercentEncode(value))
}

func queryPairs(keys []string, ais map[string]string) []string {
	pairs := make([]string, 0, len(keys))
	for _, ai := range keys {
		pairs = append(pairs, ai+"="+charclass.PercentEncode(ais[ai]))
	}
	return pairs
}

// elementStringOrKeys describes ais for log messages.
func elementStringOrKeys(table *aitable.Table, ais map[string]string) string {
	if s, err := elementstring.Build(table, ais, true); err == nil {
		return s
	}
	keys := make([]string, 0, len(ais))
	for ai := range ais {
		keys = append(keys, ai)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
