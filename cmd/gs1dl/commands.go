/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	digitallink "github.com/intel/rsp-sw-toolkit-im-suite-digitallink"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/analysis"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/epc"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/semantics"
)

// usageError is a problem with the command line rather than its input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{fmt.Sprintf(format, args...)}
}

// env is what a command runs with once its flags are parsed.
type env struct {
	cfg    Config
	logger *slog.Logger
	codec  *digitallink.Codec
	stdout io.Writer
}

func (e *env) emit(v any, text func(s styles) string) error {
	return emit(e.stdout, e.cfg.Output, v, func(r *lipgloss.Renderer) string {
		return text(newStyles(r))
	})
}

// emitValue writes a single named string, as is for text output.
func (e *env) emitValue(name, value string) error {
	return e.emit(map[string]string{name: value}, func(styles) string { return value })
}

// flags are the flags every command shares.
type flags struct {
	*pflag.FlagSet
	config   string
	output   string
	stem     string
	optimise bool
	nonGS1   bool
	debug    bool
}

func newFlags(name string, stderr io.Writer) *flags {
	f := &flags{FlagSet: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	f.SetOutput(stderr)
	f.StringVar(&f.config, "config", "", "YAML config file")
	f.StringVarP(&f.output, "output", "o", "text", "output format: text, json, yaml or cbor")
	f.StringVar(&f.stem, "stem", "", "URI stem of built links")
	f.BoolVar(&f.optimise, "optimise", true, "use the optimisation table when compressing")
	f.BoolVar(&f.nonGS1, "compress-non-gs1", false, "pack non-GS1 query pairs into compressed links")
	f.BoolVar(&f.debug, "debug", false, "log at debug level")
	return f
}

// parse parses args, which must hold exactly one input, and merges the
// config file with the flags that were set.
func (f *flags) parse(args []string, stdout, stderr io.Writer) (*env, string, error) {
	if err := f.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, "", err
		}
		return nil, "", usageError{err.Error()}
	}
	if f.NArg() != 1 {
		return nil, "", usagef("%s takes exactly one input, but got %d", f.Name(), f.NArg())
	}

	cfg := defaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = loadConfig(f.config); err != nil {
			return nil, "", usageError{err.Error()}
		}
	}
	if f.Changed("output") {
		cfg.Output = f.output
	}
	if f.Changed("stem") {
		cfg.URIStem = f.stem
	}
	if f.Changed("optimise") {
		cfg.UseOptimisations = f.optimise
	}
	if f.Changed("compress-non-gs1") {
		cfg.CompressNonGS1 = f.nonGS1
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.validate(); err != nil {
		return nil, "", usageError{err.Error()}
	}

	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	codec, err := digitallink.New(digitallink.WithLogger(logger))
	if err != nil {
		return nil, "", err
	}
	logger.Debug("configured", "command", f.Name(), "output", cfg.Output,
		"stem", cfg.URIStem, "optimise", cfg.UseOptimisations)
	return &env{cfg: cfg, logger: logger, codec: codec, stdout: stdout}, f.Arg(0), nil
}

func parseForm(name string) (digitallink.Form, error) {
	form, ok := analysis.ParseForm(name)
	if !ok {
		return digitallink.Unknown, usagef("form must be uncompressed, partial or compressed, not %q", name)
	}
	return form, nil
}

func analyseCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("analyse", stderr)
	extended := f.Bool("extended", false, "also extract and structure the link's content")
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	a, err := e.codec.AnalyseURI(uri, *extended)
	if err != nil {
		return err
	}
	rep := newAnalysisReport(a)
	return e.emit(rep, func(s styles) string { return renderAnalysis(s, rep) })
}

func extractCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("extract", stderr)
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	data, err := e.codec.DigitalLinkToData(uri)
	if err != nil {
		return err
	}
	return e.emit(data, func(s styles) string { return renderData(s, e.codec.Table(), &data) })
}

func buildCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("build", stderr)
	formName := f.String("form", "uncompressed", "uncompressed, partial or compressed")
	pairs := f.StringToString("pair", nil, "non-GS1 query pair as key=value")
	fragment := f.String("fragment", "", "fragment to append")
	e, text, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}
	form, err := parseForm(*formName)
	if err != nil {
		return err
	}

	data, err := e.codec.ElementStringToData(text, false)
	if err != nil {
		return err
	}
	uri, err := e.codec.DataToDigitalLink(data.GS1AIs, digitallink.BuildOptions{
		Stem:             e.cfg.URIStem,
		Form:             form,
		UseOptimisations: e.cfg.UseOptimisations,
		NonGS1:           *pairs,
		CompressNonGS1:   e.cfg.CompressNonGS1,
		Fragment:         *fragment,
	})
	if err != nil {
		return err
	}
	return e.emitValue("uri", uri)
}

func compressCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("compress", stderr)
	partial := f.Bool("partial", false, "compress only the qualifiers and query")
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	target := digitallink.Compressed
	if *partial {
		target = digitallink.PartiallyCompressed
	}
	out, err := e.codec.ChangeCompressionLevel(uri, target, e.cfg.UseOptimisations, e.cfg.CompressNonGS1)
	if err != nil {
		return err
	}
	return e.emitValue("uri", out)
}

func decompressCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("decompress", stderr)
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	out, err := e.codec.ChangeCompressionLevel(uri, digitallink.Uncompressed, e.cfg.UseOptimisations, false)
	if err != nil {
		return err
	}
	return e.emitValue("uri", out)
}

func elementCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("element", stderr)
	brackets := f.Bool("brackets", true, "write (AI) brackets instead of FNC1 separators")
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	data, err := e.codec.DigitalLinkToData(uri)
	if err != nil {
		return err
	}
	es, err := e.codec.DataToElementString(data.GS1AIs, *brackets)
	if err != nil {
		return err
	}
	return e.emitValue("elementString", es)
}

func semanticsCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("semantics", stderr)
	e, uri, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}

	data, err := e.codec.DigitalLinkToData(uri)
	if err != nil {
		return err
	}
	mapper, err := semantics.New()
	if err != nil {
		return err
	}
	doc, err := mapper.Map(uri, data)
	if err != nil {
		return err
	}

	// JSON-LD is already meant to be read; text output is indented JSON
	text, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return e.emit(doc, func(styles) string { return string(text) })
}

func epcCmd(args []string, stdout, stderr io.Writer) error {
	f := newFlags("epc", stderr)
	formName := f.String("form", "uncompressed", "uncompressed, partial or compressed")
	e, input, err := f.parse(args, stdout, stderr)
	if err != nil {
		return err
	}
	form, err := parseForm(*formName)
	if err != nil {
		return err
	}

	var sgtin epc.SGTIN
	rep := epcReport{}
	if strings.HasPrefix(input, "urn:") {
		if sgtin, err = epc.ParseSGTINURI(input); err != nil {
			return err
		}
	} else {
		if sgtin, err = epc.ParseTag(input); err != nil {
			return err
		}
		rep.Filter = sgtin.Filter().String()
	}

	rep.PureURI = sgtin.URI()
	rep.ElementData = sgtin.ElementData()
	rep.DigitalLink, err = e.codec.DataToDigitalLink(rep.ElementData, digitallink.BuildOptions{
		Stem:             e.cfg.URIStem,
		Form:             form,
		UseOptimisations: e.cfg.UseOptimisations,
	})
	if err != nil {
		return err
	}
	e.logger.Debug("decoded SGTIN", "pure_uri", rep.PureURI, "form", form.String())
	return e.emit(rep, func(s styles) string { return renderEPC(s, rep) })
}
