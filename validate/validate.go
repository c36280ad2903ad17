/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package validate checks AI values, qualifier sequences and the non-GS1
// parts of a Digital Link. Every failure is a *dlerror.Error.
package validate

import (
	"regexp"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
)

// DefaultStem is used when no URI stem is given.
const DefaultStem = "https://id.gs1.org"

// CheckDigit returns the GS1 mod-10 check digit of digits, the value that
// precedes the check digit. Weights alternate 3, 1 starting from the
// rightmost digit.
func CheckDigit(digits string) (byte, error) {
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if d < '0' || d > '9' {
			return 0, dlerror.New(dlerror.SyntaxError,
				"check digit input %q has a non-digit at %d", digits, i)
		}
		weight := 1
		if (len(digits)-1-i)%2 == 0 {
			weight = 3
		}
		sum += int(d-'0') * weight
	}
	// mod 10 additive inverse
	return byte('0' + (10-sum%10)%10), nil
}

// VerifyCheckDigit confirms the digit at the entry's check digit position
// matches the digits before it. Entries without a check digit always pass.
func VerifyCheckDigit(e *aitable.Entry, value string) error {
	if e.CheckDigit == 0 {
		return nil
	}
	if len(value) < e.CheckDigit {
		return dlerror.New(dlerror.InvalidCheckDigit,
			"AI %s value %q is too short to hold a check digit at position %d",
			e.AI, value, e.CheckDigit)
	}
	want, err := CheckDigit(value[:e.CheckDigit-1])
	if err != nil {
		return dlerror.Wrap(err, dlerror.InvalidCheckDigit,
			"AI %s value %q", e.AI, value)
	}
	if got := value[e.CheckDigit-1]; got != want {
		return dlerror.New(dlerror.InvalidCheckDigit,
			"AI %s value %q has check digit %c, but it should be %c",
			e.AI, value, got, want)
	}
	return nil
}

// VerifySyntax confirms value matches the entry's pattern.
func VerifySyntax(e *aitable.Entry, value string) error {
	if !e.Pattern.MatchString(value) {
		return dlerror.New(dlerror.SyntaxError,
			"value %q doesn't match the format of AI %s (%s)",
			value, e.AI, e.Title)
	}
	return nil
}

// VerifyAI looks up ai and checks both the syntax and check digit of value.
func VerifyAI(table *aitable.Table, ai, value string) error {
	e, ok := table.Lookup(ai)
	if !ok {
		return dlerror.New(dlerror.InvalidApplicationIdentifier,
			"unknown AI %q", ai)
	}
	if err := VerifySyntax(e, value); err != nil {
		return err
	}
	return VerifyCheckDigit(e, value)
}

// VerifySequence confirms the qualifiers following an identifier, in the
// order given, are all from a single one of its permitted sequences, and
// appear in that sequence's relative order without repeats.
func VerifySequence(table *aitable.Table, identifier string, qualifiers []string) error {
	if len(qualifiers) == 0 {
		return nil
	}
	sequences := table.Sequences(identifier)

	var candidates [][]string
	for _, seq := range sequences {
		if containsAll(seq, qualifiers) {
			candidates = append(candidates, seq)
		}
	}

	if len(candidates) == 0 {
		for _, q := range qualifiers {
			if !inAny(sequences, q) {
				return dlerror.New(dlerror.InvalidQualifierSequence,
					"AI %s isn't a qualifier of identifier %s", q, identifier)
			}
		}
		return dlerror.New(dlerror.InvalidQualifierSequence,
			"qualifiers %v of identifier %s mix mutually exclusive sequences %v",
			qualifiers, identifier, sequences)
	}

	for _, seq := range candidates {
		if inOrder(seq, qualifiers) {
			return nil
		}
	}
	return dlerror.New(dlerror.InvalidQualifierSequence,
		"qualifiers %v of identifier %s must follow the order %v",
		qualifiers, identifier, candidates[0])
}

func indexOf(seq []string, ai string) int {
	for i, s := range seq {
		if s == ai {
			return i
		}
	}
	return -1
}

func containsAll(seq, qualifiers []string) bool {
	for _, q := range qualifiers {
		if indexOf(seq, q) < 0 {
			return false
		}
	}
	return true
}

func inAny(sequences [][]string, q string) bool {
	for _, seq := range sequences {
		if indexOf(seq, q) >= 0 {
			return true
		}
	}
	return false
}

// inOrder is true if the qualifiers' positions in seq strictly increase.
func inOrder(seq, qualifiers []string) bool {
	last := -1
	for _, q := range qualifiers {
		i := indexOf(seq, q)
		if i <= last {
			return false
		}
		last = i
	}
	return true
}

const (
	unreserved = `A-Za-z0-9\-._~`
	subDelims  = `!$'()*+,`
	pctEncoded = `%[0-9A-Fa-f]{2}`
)

var (
	queryKeyPattern   = regexp.MustCompile(`^(?:[` + unreserved + subDelims + `:@]|` + pctEncoded + `)+$`)
	queryValuePattern = regexp.MustCompile(`^(?:[` + unreserved + subDelims + `:@/?=]|` + pctEncoded + `)*$`)
	otherQueryPattern = regexp.MustCompile(`^(?:[` + unreserved + subDelims + `:@/?]|` + pctEncoded + `)+$`)
	fragmentPattern   = regexp.MustCompile(`^(?:[` + unreserved + subDelims + `:@/?&;=]|` + pctEncoded + `)*$`)
)

// VerifyNonGS1Pair checks a non-GS1 query string key and its percent-encoded
// value. Keys need at least one non-digit, or they'd be read as AIs.
func VerifyNonGS1Pair(key, value string) error {
	if !queryKeyPattern.MatchString(key) || isDigits(key) {
		return dlerror.New(dlerror.InvalidQueryStringKeyValuePair,
			"invalid non-GS1 query string key %q", key)
	}
	if !queryValuePattern.MatchString(value) {
		return dlerror.New(dlerror.InvalidQueryStringKeyValuePair,
			"invalid value %q for query string key %q", value, key)
	}
	return nil
}

// VerifyOtherQuery checks query string content that isn't a key=value pair.
// Tokens are separated by '&'.
func VerifyOtherQuery(content string) error {
	if content == "" {
		return nil
	}
	for _, token := range strings.Split(content, "&") {
		if !otherQueryPattern.MatchString(token) {
			return dlerror.New(dlerror.InvalidQueryStringContent,
				"invalid query string content %q", token)
		}
	}
	return nil
}

// VerifyFragment checks a fragment specifier, given without its '#'.
func VerifyFragment(fragment string) error {
	if !fragmentPattern.MatchString(fragment) {
		return dlerror.New(dlerror.InvalidFragmentSpecifier,
			"invalid fragment specifier %q", fragment)
	}
	return nil
}

// NormaliseStem returns the URI stem a Digital Link is built on: trimmed,
// https://id.gs1.org if empty, with https:// added when there's no scheme and
// without a trailing '/'. Only http and https stems are allowed, and a stem
// can't carry a query or fragment.
func NormaliseStem(stem string) (string, error) {
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return DefaultStem, nil
	}
	if i := strings.Index(stem, "://"); i >= 0 {
		scheme := strings.ToLower(stem[:i])
		if scheme != "http" && scheme != "https" {
			return "", dlerror.New(dlerror.InvalidDigitalLink,
				"URI stem %q must use http or https", stem)
		}
	} else {
		stem = "https://" + stem
	}
	if strings.ContainsAny(stem, "?# ") {
		return "", dlerror.New(dlerror.InvalidDigitalLink,
			"URI stem %q can't contain a query, fragment or space", stem)
	}
	rest := stem[strings.Index(stem, "://")+len("://"):]
	if rest == "" || rest[0] == '/' {
		return "", dlerror.New(dlerror.InvalidDigitalLink,
			"URI stem %q has no domain", stem)
	}
	return strings.TrimSuffix(stem, "/"), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
