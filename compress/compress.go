/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package compress packs AI data into the binary format of compressed GS1
// Digital Links and renders it as safe-64 text.
//
// The binary format is a sequence of records, each introduced by two 4-bit
// nibbles:
//
//   - two decimal nibbles start an AI: the prefix length table says how many
//     more decimal nibbles complete its code, then its value follows, packed
//     segment by segment according to its format;
//   - a nibble pair naming an optimisation code stands for several AIs, whose
//     values follow in the code's order;
//   - a first nibble of 0xF flags a non-GS1 key=value pair: a 7-bit key
//     length, the key at 6 bits per safe-64 character, then a 3-bit encoding
//     tag, a 7-bit value length, and the packed value.
//
// Values are packed with the narrowest of five encodings (see charclass). The
// bit string is padded with 0s to a multiple of 6 bits for the safe-64 text.
package compress

import (
	"sort"
	"strconv"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/bitstream"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
)

const (
	nibbleBits = 4
	// nonGS1Flag is the first nibble of a non-GS1 pair record.
	nonGS1Flag = 0xF
	// nonGS1LengthBits is the width of both length fields of a non-GS1 pair.
	nonGS1LengthBits = 7
	maxNonGS1Length  = 1<<nonGS1LengthBits - 1
)

// Result is the content of decoded binary data.
type Result struct {
	AIs    map[string]string
	NonGS1 map[string]string
}

// SelectOptimisations greedily picks optimisation codes for a set of AIs.
// Each round takes the applicable code whose AIs have the most characters in
// total, preferring the lowest code on ties, and removes its AIs. It returns
// the codes in the order picked and the AIs left over, in ascending order.
func SelectOptimisations(table *aitable.Table, ais []string) (codes, remaining []string) {
	left := make(map[string]bool, len(ais))
	for _, ai := range ais {
		left[ai] = true
	}

	all := table.Optimisations()
	for {
		best, bestLen := "", 0
		for _, code := range all {
			list, _ := table.Optimisation(code)
			n := 0
			for _, ai := range list {
				if !left[ai] {
					n = 0
					break
				}
				n += len(ai)
			}
			if n > bestLen {
				best, bestLen = code, n
			}
		}
		if best == "" {
			break
		}
		codes = append(codes, best)
		list, _ := table.Optimisation(best)
		for _, ai := range list {
			delete(left, ai)
		}
	}

	for ai := range left {
		remaining = append(remaining, ai)
	}
	aitable.SortNumeric(remaining)
	return codes, remaining
}

// EncodeBits packs ais, and nonGS1 if it isn't empty, into binary.
func EncodeBits(table *aitable.Table, ais map[string]string, useOptimisations bool, nonGS1 map[string]string) (bitstream.Bits, error) {
	keys := make([]string, 0, len(ais))
	for ai := range ais {
		if _, ok := table.Lookup(ai); !ok {
			return bitstream.Bits{}, dlerror.New(dlerror.InvalidApplicationIdentifier,
				"unknown AI %q", ai)
		}
		keys = append(keys, ai)
	}

	var codes []string
	remaining := keys
	if useOptimisations {
		codes, remaining = SelectOptimisations(table, keys)
	} else {
		aitable.SortNumeric(remaining)
	}

	var w bitstream.Writer
	for _, code := range codes {
		for i := 0; i < len(code); i++ {
			nibble, _ := strconv.ParseUint(code[i:i+1], 16, 8)
			w.WriteUint(nibble, nibbleBits)
		}
		list, _ := table.Optimisation(code)
		for _, ai := range list {
			e, _ := table.Lookup(ai)
			if err := encodeValue(&w, e, ais[ai]); err != nil {
				return bitstream.Bits{}, err
			}
		}
	}

	for _, ai := range remaining {
		for i := 0; i < len(ai); i++ {
			w.WriteUint(uint64(ai[i]-'0'), nibbleBits)
		}
		e, _ := table.Lookup(ai)
		if err := encodeValue(&w, e, ais[ai]); err != nil {
			return bitstream.Bits{}, err
		}
	}

	nonGS1Keys := make([]string, 0, len(nonGS1))
	for k := range nonGS1 {
		nonGS1Keys = append(nonGS1Keys, k)
	}
	sort.Strings(nonGS1Keys)
	for _, k := range nonGS1Keys {
		if err := encodeNonGS1(&w, k, nonGS1[k]); err != nil {
			return bitstream.Bits{}, err
		}
	}

	return w.Bits(), nil
}

// Encode packs ais and nonGS1 and renders them as safe-64 text.
func Encode(table *aitable.Table, ais map[string]string, useOptimisations bool, nonGS1 map[string]string) (string, error) {
	b, err := EncodeBits(table, ais, useOptimisations, nonGS1)
	if err != nil {
		return "", err
	}
	return bitstream.EncodeSafe64(b), nil
}

func encodeNonGS1(w *bitstream.Writer, key, value string) error {
	if !charclass.IsSafe64(key) || len(key) > maxNonGS1Length {
		return dlerror.New(dlerror.InvalidQueryStringKeyValuePair,
			"non-GS1 key %q must be 1 to %d safe-64 characters", key, maxNonGS1Length)
	}
	if len(value) > maxNonGS1Length {
		return dlerror.New(dlerror.InvalidQueryStringKeyValuePair,
			"value of non-GS1 key %q is longer than %d characters", key, maxNonGS1Length)
	}

	w.WriteUint(nonGS1Flag, nibbleBits)
	w.WriteUint(uint64(len(key)), nonGS1LengthBits)
	if err := (charCodec{charclass.Safe64}).encode(w, key); err != nil {
		return err
	}
	if err := encodeTagged(w, value, nonGS1LengthBits); err != nil {
		return dlerror.Wrap(err, dlerror.InvalidQueryStringKeyValuePair,
			"unable to compress the value of non-GS1 key %q", key)
	}
	return nil
}

// DecodeBits unpacks binary data produced by EncodeBits.
func DecodeBits(table *aitable.Table, b bitstream.Bits) (Result, error) {
	r := Result{AIs: map[string]string{}, NonGS1: map[string]string{}}

	pos := 0
	for b.Len()-pos > 2*nibbleBits {
		h1, _ := b.Uint(pos, nibbleBits)
		h2, _ := b.Uint(pos+nibbleBits, nibbleBits)

		switch {
		case h1 < 10 && h2 < 10:
			ai, next, err := decodeAI(table, b, pos, h1, h2)
			if err != nil {
				return Result{}, err
			}
			e, _ := table.Lookup(ai)
			value, next, err := decodeValue(b, next, e)
			if err != nil {
				return Result{}, err
			}
			r.AIs[ai] = value
			pos = next

		case isOptimisation(table, h1, h2):
			list, _ := table.Optimisation(nibbleCode(h1, h2))
			pos += 2 * nibbleBits
			for _, ai := range list {
				e, _ := table.Lookup(ai)
				value, next, err := decodeValue(b, pos, e)
				if err != nil {
					return Result{}, err
				}
				r.AIs[ai] = value
				pos = next
			}

		case h1 == nonGS1Flag:
			key, value, next, err := decodeNonGS1(b, pos+nibbleBits)
			if err != nil {
				return Result{}, err
			}
			r.NonGS1[key] = value
			pos = next

		default:
			return Result{}, dlerror.New(dlerror.UnsupportedBinaryCode,
				"unrecognised code %s at bit %d", nibbleCode(h1, h2), pos)
		}
	}
	return r, nil
}

// Decode unpacks safe-64 text produced by Encode.
func Decode(table *aitable.Table, text string) (Result, error) {
	b, err := bitstream.DecodeSafe64(text)
	if err != nil {
		return Result{}, dlerror.Wrap(err, dlerror.UnsupportedBinaryCode,
			"%q isn't compressed data", text)
	}
	return DecodeBits(table, b)
}

func nibbleCode(h1, h2 uint64) string {
	return strings.ToUpper(strconv.FormatUint(h1, 16) + strconv.FormatUint(h2, 16))
}

func isOptimisation(table *aitable.Table, h1, h2 uint64) bool {
	_, ok := table.Optimisation(nibbleCode(h1, h2))
	return ok
}

// decodeAI reads the code of an AI whose first two digits are h1 and h2,
// both already known to be decimal.
func decodeAI(table *aitable.Table, b bitstream.Bits, pos int, h1, h2 uint64) (string, int, error) {
	ai := strconv.FormatUint(h1, 10) + strconv.FormatUint(h2, 10)
	n, ok := table.PrefixLength(ai)
	if !ok {
		return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
			"no AI starts with %s (bit %d)", ai, pos)
	}
	pos += 2 * nibbleBits
	for len(ai) < n {
		d, err := b.Uint(pos, nibbleBits)
		if err != nil {
			return "", pos, truncated(err)
		}
		if d > 9 {
			return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
				"AI %s continues with non-decimal nibble %X at bit %d", ai, d, pos)
		}
		ai += strconv.FormatUint(d, 10)
		pos += nibbleBits
	}
	if _, ok := table.Lookup(ai); !ok {
		return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
			"unsupported AI %s", ai)
	}
	return ai, pos, nil
}

func decodeNonGS1(b bitstream.Bits, pos int) (string, string, int, error) {
	n, err := b.Uint(pos, nonGS1LengthBits)
	if err != nil {
		return "", "", pos, truncated(err)
	}
	key, pos, err := (charCodec{charclass.Safe64}).decode(b, pos+nonGS1LengthBits, int(n))
	if err != nil {
		return "", "", pos, err
	}
	value, pos, err := decodeTagged(b, pos, nonGS1LengthBits, maxNonGS1Length)
	if err != nil {
		return "", "", pos, err
	}
	return key, value, pos, nil
}
