/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/intel/rsp-sw-toolkit-im-suite-expect"
	"gopkg.in/yaml.v3"
)

const (
	gtin         = "09506000134352"
	uncompressed = "https://id.gs1.org/01/" + gtin + "/10/ABC123"
)

func runCLI(args ...string) (code int, stdout, stderr string) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	code = run(args, out, errOut)
	return code, out.String(), errOut.String()
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "gs1dl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_text(t *testing.T) {
	type cliTest struct {
		name string
		args []string
		want string
	}

	for i, tt := range []cliTest{
		{"version", []string{"version"}, "gs1dl dev\n"},
		{"build", []string{"build", "(01)" + gtin + "(10)ABC123"}, uncompressed + "\n"},
		{"build compressed", []string{"build", "--form", "compressed", "(01)" + gtin},
			"https://id.gs1.org/ARFKk4XBoA\n"},
		{"build stem", []string{"build", "--stem", "https://example.com/shop", "(01)" + gtin},
			"https://example.com/shop/01/" + gtin + "\n"},
		{"build pairs", []string{"build", "--pair", "lang=en", "--fragment", "top", "(01)" + gtin},
			"https://id.gs1.org/01/" + gtin + "?lang=en#top\n"},
		{"compress", []string{"compress", "https://id.gs1.org/01/" + gtin},
			"https://id.gs1.org/ARFKk4XBoA\n"},
		{"decompress", []string{"decompress", "https://id.gs1.org/ARFKk4XBoA"},
			"https://id.gs1.org/01/" + gtin + "\n"},
		{"element", []string{"element", uncompressed}, "(01)" + gtin + "(10)ABC123\n"},
		{"help", []string{"help"}, ""},
	} {
		t.Run(fmt.Sprintf("%02d_%s", i, tt.name), func(t *testing.T) {
			w := expect.WrapT(t)
			code, stdout, stderr := runCLI(tt.args...)
			w.As(stderr).ShouldBeEqual(code, 0)
			if tt.want != "" {
				w.ShouldBeEqual(stdout, tt.want)
			}
		})
	}
}

func TestRun_usage(t *testing.T) {
	for i, args := range [][]string{
		{},
		{"frobnicate"},
		{"extract"},
		{"extract", uncompressed, "extra"},
		{"extract", "--bogus", uncompressed},
		{"extract", "-o", "xml", uncompressed},
		{"build", "--form", "zipped", "(01)" + gtin},
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			code, _, _ := runCLI(args...)
			w.As(fmt.Sprint(args)).ShouldBeEqual(code, 2)
		})
	}
}

func TestRun_failures(t *testing.T) {
	for i, args := range [][]string{
		{"extract", "https://example.com/about"},
		{"build", "(01)09506000134353"},
		{"compress", "https://id.gs1.org/01/" + gtin + "/21/1/10/2"},
		{"epc", "E2801160600002054CC2096F"},
		{"epc", "urn:epc:id:sgtin:0888446.06714.1"},
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			code, stdout, stderr := runCLI(args...)
			w.As(fmt.Sprint(args)).ShouldBeEqual(code, 1)
			w.ShouldBeEqual(stdout, "")
			w.ShouldBeTrue(strings.HasPrefix(stderr, "Error: "))
		})
	}
}

func TestRun_extractJSON(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	code, stdout, stderr := runCLI("extract", "-o", "json", uncompressed+"?17=201231&lang=en")
	w.As(stderr).ShouldBeEqual(code, 0)

	var data struct {
		GS1AIs      map[string]string `json:"gs1Ais"`
		NonGS1Pairs map[string]string `json:"nonGs1Pairs"`
	}
	w.ShouldSucceed(json.Unmarshal([]byte(stdout), &data))
	w.ShouldBeEqual(data.GS1AIs, map[string]string{"01": gtin, "10": "ABC123", "17": "201231"})
	w.ShouldBeEqual(data.NonGS1Pairs, map[string]string{"lang": "en"})
}

func TestRun_extractText(t *testing.T) {
	w := expect.WrapT(t)
	code, stdout, stderr := runCLI("extract", uncompressed+"#frag")
	w.As(stderr).ShouldBeEqual(code, 0)
	w.ShouldBeTrue(strings.Contains(stdout, "GS1 data"))
	w.ShouldBeTrue(strings.Contains(stdout, "(01) "+gtin))
	w.ShouldBeTrue(strings.Contains(stdout, "(10) ABC123"))
	w.ShouldBeTrue(strings.Contains(stdout, "frag"))
}

func TestRun_analyse(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	code, stdout, stderr := runCLI("analyse", "--extended", "-o", "yaml", uncompressed+"?17=201231")
	w.As(stderr).ShouldBeEqual(code, 0)

	var rep analysisReport
	w.ShouldSucceed(yaml.Unmarshal([]byte(stdout), &rep))
	w.ShouldBeEqual(rep.Form, "uncompressed")
	w.ShouldBeEqual(rep.Stem, "https://id.gs1.org")
	w.ShouldBeEqual(rep.ElementString, "(01)"+gtin+"(10)ABC123(17)201231")
	w.ShouldBeEqual(len(rep.Structured.Identifiers), 1)
	w.ShouldBeEqual(rep.Structured.Identifiers[0].AI, "01")

	code, stdout, _ = runCLI("analyse", "https://example.com/about")
	w.ShouldBeEqual(code, 0)
	w.ShouldBeTrue(strings.Contains(stdout, "unknown"))
}

func TestRun_epc(t *testing.T) {
	for i, tt := range []struct {
		input, form, link string
	}{
		{"30143639F84191AD22901607", "uncompressed",
			"https://id.gs1.org/01/00888446671424/21/193853396487"},
		{"urn:epc:id:sgtin:0888446.067142.193853396487", "uncompressed",
			"https://id.gs1.org/01/00888446671424/21/193853396487"},
		{"36143639F84191A465D9B37A176C5EB1769D72E557D52E5CBC", "uncompressed",
			"https://id.gs1.org/01/00888446671424/21/Hello%21%3B1%3D1%3B%27..%2A_%2A..%2F"},
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t).StopOnMismatch()
			code, stdout, stderr := runCLI("epc", "-o", "json", "--form", tt.form, tt.input)
			w.As(stderr).ShouldBeEqual(code, 0)

			var rep epcReport
			w.ShouldSucceed(json.Unmarshal([]byte(stdout), &rep))
			w.ShouldBeEqual(rep.ElementData["01"], "00888446671424")
			w.ShouldBeEqual(rep.DigitalLink, tt.link)
		})
	}
}

func TestRun_cbor(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	code, stdout, stderr := runCLI("compress", "-o", "cbor", "https://id.gs1.org/01/"+gtin)
	w.As(stderr).ShouldBeEqual(code, 0)

	var out map[string]string
	w.ShouldSucceed(cbor.Unmarshal([]byte(stdout), &out))
	w.ShouldBeEqual(out, map[string]string{"uri": "https://id.gs1.org/ARFKk4XBoA"})
}

func TestRun_semantics(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	code, stdout, stderr := runCLI("semantics", "-o", "json", uncompressed)
	w.As(stderr).ShouldBeEqual(code, 0)

	var doc map[string]any
	w.ShouldSucceed(json.Unmarshal([]byte(stdout), &doc))
	w.ShouldBeEqual(doc["@id"], uncompressed)
	w.ShouldBeEqual(doc["gs1:hasBatchLot"], "ABC123")
}

func TestRun_config(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	path := writeConfig(t, "uri_stem: https://example.com\noutput: json\nuse_optimisations: false\n")

	code, stdout, stderr := runCLI("build", "--config", path, "(01)"+gtin)
	w.As(stderr).ShouldBeEqual(code, 0)
	var out map[string]string
	w.ShouldSucceed(json.Unmarshal([]byte(stdout), &out))
	w.ShouldBeEqual(out["uri"], "https://example.com/01/"+gtin)

	// flags win over the file
	code, stdout, _ = runCLI("build", "--config", path, "-o", "text", "--stem", "https://id.example.org", "(01)"+gtin)
	w.ShouldBeEqual(code, 0)
	w.ShouldBeEqual(stdout, "https://id.example.org/01/"+gtin+"\n")
}

func TestRun_badConfig(t *testing.T) {
	for i, content := range []string{
		"colour: blue\n",
		"output: xml\n",
		"log_level: loud\n",
		"output: [\n",
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			path := writeConfig(t, content)
			code, _, _ := runCLI("extract", "--config", path, uncompressed)
			w.ShouldBeEqual(code, 2)
		})
	}

	w := expect.WrapT(t)
	code, _, _ := runCLI("extract", "--config", filepath.Join(t.TempDir(), "missing.yaml"), uncompressed)
	w.ShouldBeEqual(code, 2)
}

func TestRun_debugLogs(t *testing.T) {
	w := expect.WrapT(t)
	code, _, stderr := runCLI("compress", "--debug", "https://id.gs1.org/01/"+gtin)
	w.ShouldBeEqual(code, 0)
	w.ShouldBeTrue(strings.Contains(stderr, "level=DEBUG"))
}
