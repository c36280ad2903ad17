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
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	digitallink "github.com/intel/rsp-sw-toolkit-im-suite-digitallink"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
)

// cborMode uses Core Deterministic Encoding, so the same result is always
// the same bytes.
var cborMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("gs1dl: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

// emit writes v in the configured format. text renders v for the terminal.
func emit(out io.Writer, format string, v any, text func(r *lipgloss.Renderer) string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		b, err := cborMode.Marshal(v)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	}
	_, err := fmt.Fprintln(out, text(lipgloss.NewRenderer(out)))
	return err
}

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	ai      lipgloss.Style
	faint   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Width(14).Foreground(lipgloss.Color("8")),
		ai:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		faint:   r.NewStyle().Faint(true),
	}
}

// field renders "label value", skipping empty values.
func (s styles) field(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(s.label.Render(label))
	sb.WriteString(value)
	sb.WriteByte('\n')
}

func (s styles) aiLine(sb *strings.Builder, ai, title, value string) {
	sb.WriteString("  ")
	sb.WriteString(s.ai.Render("(" + ai + ")"))
	sb.WriteByte(' ')
	sb.WriteString(value)
	if title != "" {
		sb.WriteString("  ")
		sb.WriteString(s.faint.Render(title))
	}
	sb.WriteByte('\n')
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderData(s styles, table *aitable.Table, data *digitallink.ExtractedData) string {
	sb := &strings.Builder{}
	sb.WriteString(s.heading.Render("GS1 data"))
	sb.WriteByte('\n')
	for _, ai := range sortedKeys(data.GS1AIs) {
		var title string
		if e, ok := table.Lookup(ai); ok {
			title = e.Title
		}
		s.aiLine(sb, ai, title, data.GS1AIs[ai])
	}
	if len(data.NonGS1Pairs) > 0 {
		sb.WriteString(s.heading.Render("Other pairs"))
		sb.WriteByte('\n')
		for _, k := range sortedKeys(data.NonGS1Pairs) {
			sb.WriteString("  " + k + "=" + data.NonGS1Pairs[k] + "\n")
		}
	}
	s.field(sb, "query", data.OtherQueryContent)
	s.field(sb, "fragment", data.Fragment)
	return strings.TrimRight(sb.String(), "\n")
}

// analysisReport is the output shape of the analyse command.
type analysisReport struct {
	URI           string                     `json:"uri" yaml:"uri" cbor:"uri"`
	Form          string                     `json:"form" yaml:"form" cbor:"form"`
	Stem          string                     `json:"stem,omitempty" yaml:"stem,omitempty" cbor:"stem,omitempty"`
	Domain        string                     `json:"domain,omitempty" yaml:"domain,omitempty" cbor:"domain,omitempty"`
	PathInfo      string                     `json:"pathInfo,omitempty" yaml:"pathInfo,omitempty" cbor:"pathInfo,omitempty"`
	QueryString   string                     `json:"queryString,omitempty" yaml:"queryString,omitempty" cbor:"queryString,omitempty"`
	Fragment      string                     `json:"fragment,omitempty" yaml:"fragment,omitempty" cbor:"fragment,omitempty"`
	ElementString string                     `json:"elementString,omitempty" yaml:"elementString,omitempty" cbor:"elementString,omitempty"`
	Structured    *digitallink.Structured    `json:"structured,omitempty" yaml:"structured,omitempty" cbor:"structured,omitempty"`
	Data          *digitallink.ExtractedData `json:"data,omitempty" yaml:"data,omitempty" cbor:"data,omitempty"`
}

func newAnalysisReport(a *digitallink.Analysis) analysisReport {
	return analysisReport{
		URI:           a.URI,
		Form:          a.Form.String(),
		Stem:          a.Stem,
		Domain:        a.Domain,
		PathInfo:      a.PathInfo,
		QueryString:   a.QueryString,
		Fragment:      a.Fragment,
		ElementString: a.ElementString,
		Structured:    a.Structured,
		Data:          a.Data,
	}
}

func renderAnalysis(s styles, rep analysisReport) string {
	sb := &strings.Builder{}
	sb.WriteString(s.heading.Render("Digital Link analysis"))
	sb.WriteByte('\n')
	s.field(sb, "form", rep.Form)
	s.field(sb, "stem", rep.Stem)
	s.field(sb, "path", rep.PathInfo)
	s.field(sb, "query", rep.QueryString)
	s.field(sb, "fragment", rep.Fragment)
	s.field(sb, "element", rep.ElementString)
	if st := rep.Structured; st != nil {
		for _, group := range []struct {
			name   string
			values []digitallink.AIValue
		}{
			{"Identifiers", st.Identifiers},
			{"Qualifiers", st.Qualifiers},
			{"Data attributes", st.DataAttributes},
			{"Other", st.Other},
		} {
			if len(group.values) == 0 {
				continue
			}
			sb.WriteString(s.heading.Render(group.name))
			sb.WriteByte('\n')
			for _, v := range group.values {
				s.aiLine(sb, v.AI, v.Title, v.Value)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// epcReport is the output shape of the epc command.
type epcReport struct {
	PureURI     string            `json:"pureUri" yaml:"pureUri" cbor:"pureUri"`
	Filter      string            `json:"filter,omitempty" yaml:"filter,omitempty" cbor:"filter,omitempty"`
	ElementData map[string]string `json:"elementData" yaml:"elementData" cbor:"elementData"`
	DigitalLink string            `json:"digitalLink" yaml:"digitalLink" cbor:"digitalLink"`
}

func renderEPC(s styles, rep epcReport) string {
	sb := &strings.Builder{}
	sb.WriteString(s.heading.Render("SGTIN"))
	sb.WriteByte('\n')
	s.field(sb, "pure URI", rep.PureURI)
	s.field(sb, "filter", rep.Filter)
	s.field(sb, "GTIN", rep.ElementData["01"])
	s.field(sb, "serial", rep.ElementData["21"])
	s.field(sb, "link", rep.DigitalLink)
	return strings.TrimRight(sb.String(), "\n")
}
