/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package analysis

import (
	"fmt"
	"testing"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-expect"
)

func defaultTable(t *testing.T) *aitable.Table {
	table, err := aitable.Default()
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestAnalyse_forms(t *testing.T) {
	table := defaultTable(t)

	for i, tt := range []struct {
		uri  string
		form Form
	}{
		{"https://id.gs1.org/01/09506000134352", Uncompressed},
		{"https://id.gs1.org/01/09506000134352/", Uncompressed},
		{"https://id.gs1.org/01/9506000134352", Uncompressed}, // padded before matching
		{"https://id.gs1.org/01/09506000134352/10/ABC/21/12345?17=201231", Uncompressed},
		{"http://example.com/a/b/c/01/09506000134352/21/01", Uncompressed},
		{"example.com/01/09506000134352", Uncompressed},
		{"https://id.gs1.org/01/09506000134352/ARHKVAdpQg", PartiallyCompressed},
		{"https://id.gs1.org/AQnYUc1gmkZYmXSgYtIA", Compressed},
		{"https://example.com/dl/AQnYUc1gmkZYmXSgYtIA?lang=en#top", Compressed},
		{"id.gs1.org/AQnYUc1gmkZYmXSgYtIA", Unknown},
		{"https://id.gs1.org/01/0950600013435.x", Unknown},
		{"https://id.gs1.org/01/0950600013435x/10/A.B", Unknown},
		{"https://id.gs1.org/01/0950600013435x", Compressed}, // not an identifier value, but safe-64
		{"https://id.gs1.org/01/09506000134352/AB+C", Unknown},
		{"https://id.gs1.org/", Unknown},
		{"https://id.gs1.org", Unknown},
		{"", Unknown},
		{"https://id.gs1.org/not/a~link", Unknown},
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			w.As(tt.uri).ShouldBeEqual(Analyse(table, tt.uri).Form, tt.form)
		})
	}
}

func TestAnalyse_parts(t *testing.T) {
	w := expect.WrapT(t)
	table := defaultTable(t)

	r := Analyse(table, "https://example.com/shop/01/uk/01/09506000134352/10/AB%2F12/21/S1"+
		"?17=201231&lang=en;flag&linkType=gs1:pip#frag=1")

	w.ShouldBeEqual(r.Form, Uncompressed)
	w.ShouldBeEqual(r.Scheme, "https")
	w.ShouldBeEqual(r.Domain, "example.com")
	w.ShouldBeEqual(r.PathInfo, "/shop/01/uk/01/09506000134352/10/AB%2F12/21/S1")
	w.ShouldBeEqual(r.Stem, "https://example.com/shop/01/uk")
	w.ShouldBeEqual(r.StemPath, []string{"shop", "01", "uk"})
	w.ShouldBeEqual(r.Relevant, []string{"01", "09506000134352", "10", "AB%2F12", "21", "S1"})
	w.ShouldBeEqual(r.PathCandidates, []Pair{
		{"01", "09506000134352"}, {"10", "AB%2F12"}, {"21", "S1"},
	})
	w.ShouldBeEqual(r.QueryString, "17=201231&lang=en;flag&linkType=gs1:pip")
	w.ShouldBeEqual(r.QueryGS1, []Pair{{"17", "201231"}})
	w.ShouldBeEqual(r.QueryNonGS1, []Pair{{"lang", "en"}, {"linkType", "gs1:pip"}})
	w.ShouldBeEqual(r.OtherQuery, []string{"flag"})
	w.ShouldBeEqual(r.Fragment, "frag=1")
	w.ShouldBeEqual(r.Compressed(), "")
}

func TestAnalyse_identifierCodeAsValue(t *testing.T) {
	table := defaultTable(t)

	t.Run("qualifierValue", func(t *testing.T) {
		w := expect.WrapT(t)
		r := Analyse(table, "https://id.gs1.org/01/09506000134352/10/01/21/5")
		w.ShouldBeEqual(r.Form, Uncompressed)
		w.ShouldBeEqual(r.Stem, "https://id.gs1.org")
		w.ShouldHaveLength(r.StemPath, 0)
		w.ShouldBeEqual(r.PathCandidates, []Pair{
			{"01", "09506000134352"}, {"10", "01"}, {"21", "5"},
		})
	})

	t.Run("stemSegment", func(t *testing.T) {
		w := expect.WrapT(t)
		r := Analyse(table, "https://example.com/00/x/01/09506000134352/10/00")
		w.ShouldBeEqual(r.Form, Uncompressed)
		w.ShouldBeEqual(r.StemPath, []string{"00", "x"})
		w.ShouldBeEqual(r.PathCandidates, []Pair{{"01", "09506000134352"}, {"10", "00"}})
	})
}

func TestAnalyse_partiallyCompressed(t *testing.T) {
	w := expect.WrapT(t)
	r := Analyse(defaultTable(t), "http://example.com/01/09506000134352/ARHKVAdpQg")

	w.ShouldBeEqual(r.Form, PartiallyCompressed)
	w.ShouldBeEqual(r.Stem, "http://example.com")
	w.ShouldBeEqual(r.PathCandidates, []Pair{{"01", "09506000134352"}})
	w.ShouldBeEqual(r.Compressed(), "ARHKVAdpQg")
}

func TestAnalyse_compressed(t *testing.T) {
	w := expect.WrapT(t)
	r := Analyse(defaultTable(t), "https://example.com/a/b/AQnYUc1gmkZYmXSgYtIA?x=y")

	w.ShouldBeEqual(r.Form, Compressed)
	w.ShouldBeEqual(r.Stem, "https://example.com/a/b")
	w.ShouldBeEqual(r.StemPath, []string{"a", "b"})
	w.ShouldBeEqual(r.Relevant, []string{"AQnYUc1gmkZYmXSgYtIA"})
	w.ShouldBeEqual(r.Compressed(), "AQnYUc1gmkZYmXSgYtIA")
	w.ShouldHaveLength(r.PathCandidates, 0)
	w.ShouldBeEqual(r.QueryNonGS1, []Pair{{"x", "y"}})
}

func TestAnalyse_noScheme(t *testing.T) {
	w := expect.WrapT(t)
	r := Analyse(defaultTable(t), "id.gs1.org/01/09506000134352")

	w.ShouldBeEqual(r.Scheme, "")
	w.ShouldBeEqual(r.Domain, "id.gs1.org")
	w.ShouldBeEqual(r.Stem, "id.gs1.org")
}

func TestForm(t *testing.T) {
	w := expect.WrapT(t)

	w.ShouldBeTrue(Uncompressed < PartiallyCompressed)
	w.ShouldBeTrue(PartiallyCompressed < Compressed)
	w.ShouldBeEqual(Compressed.String(), "compressed")
	w.ShouldBeEqual(Form(9).String(), "Form(9)")

	for s, f := range map[string]Form{
		"none": Uncompressed, "Uncompressed": Uncompressed,
		"partial": PartiallyCompressed, "partially-compressed": PartiallyCompressed,
		"full": Compressed, " compressed ": Compressed,
	} {
		got, ok := ParseForm(s)
		w.As(s).ShouldBeTrue(ok)
		w.As(s).ShouldBeEqual(got, f)
	}
	_, ok := ParseForm("unknown")
	w.ShouldBeFalse(ok)
}
