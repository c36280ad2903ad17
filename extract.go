/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package digitallink

import (
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/analysis"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/compress"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/validate"
)

// DigitalLinkToData extracts the content of a Digital Link in any form.
// Every AI value is validated, and path qualifiers must follow one of their
// identifier's sequences.
func (c *Codec) DigitalLinkToData(uri string) (ExtractedData, error) {
	r := analysis.Analyse(c.table, uri)
	data, err := c.extract(r)
	if err != nil {
		return ExtractedData{}, c.fail("DigitalLinkToData", uri, err)
	}
	c.logger.Debug("extracted digital link",
		"form", r.Form.String(), "ais", len(data.GS1AIs))
	return data, nil
}

func (c *Codec) extract(r *analysis.Result) (ExtractedData, error) {
	data := ExtractedData{GS1AIs: map[string]string{}}

	switch r.Form {
	case analysis.Uncompressed:
		if err := c.extractPath(r.PathCandidates, data.GS1AIs); err != nil {
			return data, err
		}

	case analysis.PartiallyCompressed:
		if err := c.extractPath(r.PathCandidates, data.GS1AIs); err != nil {
			return data, err
		}
		if err := c.extractCompressed(r.Compressed(), &data); err != nil {
			return data, err
		}

	case analysis.Compressed:
		if err := c.extractCompressed(r.Compressed(), &data); err != nil {
			return data, err
		}
		if !hasIdentifier(c.table, data.GS1AIs) {
			return data, dlerror.New(dlerror.InvalidDigitalLink,
				"compressed data %q has no primary identifier", r.Compressed())
		}

	default:
		return data, dlerror.New(dlerror.InvalidDigitalLink,
			"%q isn't a GS1 Digital Link", r.URI)
	}

	for _, p := range r.QueryGS1 {
		value, err := decodeValue(p)
		if err != nil {
			return data, err
		}
		value = elementstring.PadGTIN(p.Key, value)
		if _, dup := data.GS1AIs[p.Key]; dup {
			return data, dlerror.New(dlerror.InvalidDigitalLink,
				"AI %s appears more than once", p.Key)
		}
		if err := validate.VerifyAI(c.table, p.Key, value); err != nil {
			return data, err
		}
		data.GS1AIs[p.Key] = value
	}

	for _, p := range r.QueryNonGS1 {
		if err := validate.VerifyNonGS1Pair(p.Key, p.Value); err != nil {
			return data, err
		}
		value, err := charclass.PercentDecode(p.Value)
		if err != nil {
			return data, dlerror.Wrap(err, dlerror.InvalidQueryStringKeyValuePair,
				"bad value for query string key %q", p.Key)
		}
		if data.NonGS1Pairs == nil {
			data.NonGS1Pairs = map[string]string{}
		}
		data.NonGS1Pairs[p.Key] = value
	}

	data.OtherQueryContent = strings.Join(r.OtherQuery, "&")
	if err := validate.VerifyOtherQuery(data.OtherQueryContent); err != nil {
		return data, err
	}
	if err := validate.VerifyFragment(r.Fragment); err != nil {
		return data, err
	}
	data.Fragment = r.Fragment
	return data, nil
}

// extractPath validates and decodes the identifier and qualifier pairs of an
// uncompressed path. The first pair is always the primary identifier.
func (c *Codec) extractPath(pairs []analysis.Pair, ais map[string]string) error {
	if len(pairs) == 0 {
		return dlerror.New(dlerror.InvalidDigitalLink, "no primary identifier in path")
	}
	identifier := pairs[0].Key
	id, _ := c.table.Lookup(identifier)
	permitted := map[string]bool{}
	for _, q := range id.Qualifiers() {
		permitted[q] = true
	}

	var qualifiers []string
	for i, p := range pairs {
		if i > 0 {
			if !permitted[p.Key] {
				return dlerror.New(dlerror.InvalidQualifierSequence,
					"path segment %s isn't a qualifier of identifier %s", p.Key, identifier)
			}
			qualifiers = append(qualifiers, p.Key)
		}
		value, err := decodeValue(p)
		if err != nil {
			return err
		}
		value = elementstring.PadGTIN(p.Key, value)
		if err := validate.VerifyAI(c.table, p.Key, value); err != nil {
			return err
		}
		if _, dup := ais[p.Key]; dup {
			return dlerror.New(dlerror.InvalidDigitalLink,
				"AI %s appears more than once", p.Key)
		}
		ais[p.Key] = value
	}
	return validate.VerifySequence(c.table, identifier, qualifiers)
}

// extractCompressed decodes compressed path data into data, which may already
// hold AIs from the path.
func (c *Codec) extractCompressed(text string, data *ExtractedData) error {
	res, err := compress.Decode(c.table, text)
	if err != nil {
		return err
	}
	for ai, value := range res.AIs {
		if _, dup := data.GS1AIs[ai]; dup {
			return dlerror.New(dlerror.InvalidDigitalLink,
				"AI %s appears more than once", ai)
		}
		if err := validate.VerifyAI(c.table, ai, value); err != nil {
			return err
		}
		data.GS1AIs[ai] = value
	}
	for k, v := range res.NonGS1 {
		if data.NonGS1Pairs == nil {
			data.NonGS1Pairs = map[string]string{}
		}
		data.NonGS1Pairs[k] = v
	}
	return nil
}

func decodeValue(p analysis.Pair) (string, error) {
	value, err := charclass.PercentDecode(p.Value)
	if err != nil {
		return "", dlerror.Wrap(err, dlerror.SyntaxError, "bad value for AI %s", p.Key)
	}
	return value, nil
}

func hasIdentifier(table *aitable.Table, ais map[string]string) bool {
	for ai := range ais {
		if table.IsIdentifier(ai) {
			return true
		}
	}
	return false
}

// ChangeCompressionLevel converts a Digital Link to the target form, keeping
// its stem, query extras and fragment.
func (c *Codec) ChangeCompressionLevel(uri string, target Form, useOptimisations, compressNonGS1 bool) (string, error) {
	out, err := c.changeLevel(uri, target, useOptimisations, compressNonGS1)
	if err != nil {
		return "", c.fail("ChangeCompressionLevel", uri, err)
	}
	return out, nil
}

func (c *Codec) changeLevel(uri string, target Form, useOptimisations, compressNonGS1 bool) (string, error) {
	if target < Uncompressed || target > Compressed {
		return "", dlerror.New(dlerror.InvalidDigitalLink,
			"can't convert to form %v", target)
	}
	r := analysis.Analyse(c.table, uri)
	if r.Form == Unknown {
		return "", dlerror.New(dlerror.InvalidDigitalLink,
			"%q isn't a GS1 Digital Link", uri)
	}
	data, err := c.extract(r)
	if err != nil {
		return "", err
	}

	direction := "re-encode"
	switch {
	case target > r.Form:
		direction = "compress"
	case target < r.Form:
		direction = "decompress"
	}
	c.logger.Debug("changing compression level",
		"direction", direction, "from", r.Form.String(), "to", target.String())

	return c.buildLink(data.GS1AIs, BuildOptions{
		Stem:             r.Stem,
		Form:             target,
		UseOptimisations: useOptimisations,
		NonGS1:           data.NonGS1Pairs,
		CompressNonGS1:   compressNonGS1,
		OtherQuery:       data.OtherQueryContent,
		Fragment:         data.Fragment,
	})
}
