/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package digitallink converts GS1 data between element strings, AI maps and
// GS1 Digital Link URIs.
//
// A Digital Link carries its AIs in one of three forms:
//
//	https://id.gs1.org/01/09506000134352/10/ABC123?17=201231    uncompressed
//	https://id.gs1.org/01/09506000134352/<compressed>           partially compressed
//	https://id.gs1.org/<compressed>                             compressed
//
// where <compressed> is the safe-64 rendering of the binary format described
// in package compress. Any of them may also carry non-GS1 query parameters,
// other query content and a fragment, which pass through every conversion.
//
// A Codec holds the AI table and element string parser it works with. The
// package-level functions use the Codec returned by Default.
package digitallink

import (
	"io"
	"log/slog"
	"sync"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/analysis"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/elementstring"
)

// Form is the layout of a Digital Link, ordered by compression level.
type Form = analysis.Form

const (
	Unknown             = analysis.Unknown
	Uncompressed        = analysis.Uncompressed
	PartiallyCompressed = analysis.PartiallyCompressed
	Compressed          = analysis.Compressed
)

// ExtractedData is the content of a Digital Link or element string.
type ExtractedData struct {
	GS1AIs            map[string]string `json:"gs1Ais" yaml:"gs1Ais" cbor:"gs1Ais"`
	NonGS1Pairs       map[string]string `json:"nonGs1Pairs,omitempty" yaml:"nonGs1Pairs,omitempty" cbor:"nonGs1Pairs,omitempty"`
	OtherQueryContent string            `json:"otherQueryContent,omitempty" yaml:"otherQueryContent,omitempty" cbor:"otherQueryContent,omitempty"`
	Fragment          string            `json:"fragment,omitempty" yaml:"fragment,omitempty" cbor:"fragment,omitempty"`
}

// Codec converts between the representations of GS1 data. It's safe for
// concurrent use.
type Codec struct {
	table  *aitable.Table
	parser elementstring.Parser
	logger *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithTable sets the AI table; the default is aitable.Default.
func WithTable(table *aitable.Table) Option {
	return func(c *Codec) { c.table = table }
}

// WithParser sets the element string parser; the default is a
// elementstring.TableParser over the Codec's table.
func WithParser(parser elementstring.Parser) Option {
	return func(c *Codec) { c.parser = parser }
}

// WithLogger sets the logger failures and conversions are reported to. By
// default, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) { c.logger = logger }
}

// New returns a Codec configured by opts.
func New(opts ...Option) (*Codec, error) {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	if c.table == nil {
		table, err := aitable.Default()
		if err != nil {
			return nil, err
		}
		c.table = table
	}
	if c.parser == nil {
		c.parser = elementstring.TableParser{Table: c.table}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

var defaultCodec = sync.OnceValues(func() (*Codec, error) {
	return New()
})

// Default returns a Codec using the embedded AI table, which doesn't log.
func Default() (*Codec, error) {
	return defaultCodec()
}

// Table returns the Codec's AI table.
func (c *Codec) Table() *aitable.Table {
	return c.table
}

// fail stamps err with the API call it surfaced through and logs it.
func (c *Codec) fail(method, param string, err error) error {
	err = dlerror.At(err, method)
	c.logger.Warn("conversion failed",
		"method", method,
		"kind", dlerror.KindOf(err).String(),
		"param", param,
		"error", err)
	return err
}

// ElementStringToData parses an element string, bracketed or FNC1.
func ElementStringToData(text string, noValidation bool) (ExtractedData, error) {
	c, err := Default()
	if err != nil {
		return ExtractedData{}, err
	}
	return c.ElementStringToData(text, noValidation)
}

// DataToElementString renders AIs as an element string.
func DataToElementString(ais map[string]string, brackets bool) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.DataToElementString(ais, brackets)
}

// DataToDigitalLink builds a Digital Link from AIs.
func DataToDigitalLink(ais map[string]string, opts BuildOptions) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.DataToDigitalLink(ais, opts)
}

// DigitalLinkToData extracts the content of a Digital Link in any form.
func DigitalLinkToData(uri string) (ExtractedData, error) {
	c, err := Default()
	if err != nil {
		return ExtractedData{}, err
	}
	return c.DigitalLinkToData(uri)
}

// ChangeCompressionLevel converts a Digital Link to another form.
func ChangeCompressionLevel(uri string, target Form, useOptimisations, compressNonGS1 bool) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.ChangeCompressionLevel(uri, target, useOptimisations, compressNonGS1)
}

// AnalyseURI breaks a URI into its Digital Link parts.
func AnalyseURI(uri string, extended bool) (*Analysis, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.AnalyseURI(uri, extended)
}
