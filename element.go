/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package digitallink

import (
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/validate"
)

// ElementStringToData parses an element string, bracketed or FNC1. With
// noValidation, malformed values and unknown trailing AIs are passed through
// instead of rejected.
func (c *Codec) ElementStringToData(text string, noValidation bool) (ExtractedData, error) {
	ais, err := elementstring.Parse(c.table, c.parser, text, noValidation)
	if err != nil {
		return ExtractedData{}, c.fail("ElementStringToData", text, err)
	}
	c.logger.Debug("parsed element string", "ais", len(ais))
	return ExtractedData{GS1AIs: ais}, nil
}

// DataToElementString renders AIs as an element string, with brackets or
// with FNC1 separators. Every value must be valid for its AI.
func (c *Codec) DataToElementString(ais map[string]string, brackets bool) (string, error) {
	for ai, value := range ais {
		if err := validate.VerifyAI(c.table, ai, value); err != nil {
			return "", c.fail("DataToElementString", ai+"="+value, err)
		}
	}
	s, err := elementstring.Build(c.table, ais, brackets)
	if err != nil {
		return "", c.fail("DataToElementString", "", err)
	}
	return s, nil
}
