/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package compress

import (
	"math/big"
	"strings"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/aitable"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/bitstream"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/charclass"
	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/dlerror"
)

// valueCodec packs the characters of a value with one encoding.
type valueCodec interface {
	// encode writes s, which must be n characters from the encoding's
	// alphabet.
	encode(w *bitstream.Writer, s string) error
	// decode reads n characters starting at pos and returns them with the
	// position following them.
	decode(b bitstream.Bits, pos, n int) (string, int, error)
}

// codecFor returns the codec of an encoding; every defined encoding has one.
func codecFor(enc charclass.Encoding) (valueCodec, error) {
	switch enc {
	case charclass.Numeric:
		return numericCodec{}, nil
	case charclass.HexLower, charclass.HexUpper, charclass.Safe64, charclass.ASCII:
		return charCodec{enc}, nil
	}
	return nil, dlerror.New(dlerror.UnsupportedBinaryCode,
		"unsupported value encoding %d", enc)
}

// numericCodec packs a run of n digits as a single integer of
// ValueBits(n) bits. An empty run takes no bits.
type numericCodec struct{}

func (numericCodec) encode(w *bitstream.Writer, s string) error {
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !charclass.IsNumeric(s) {
		return dlerror.New(dlerror.SyntaxError, "%q isn't numeric", s)
	}
	w.WriteBig(v, charclass.ValueBits(len(s)))
	return nil
}

func (numericCodec) decode(b bitstream.Bits, pos, n int) (string, int, error) {
	if n == 0 {
		return "", pos, nil
	}
	width := charclass.ValueBits(n)
	v, err := b.Big(pos, width)
	if err != nil {
		return "", pos, truncated(err)
	}
	s := v.String()
	if len(s) > n {
		return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
			"value %s at bit %d has more than %d digits", s, pos, n)
	}
	return strings.Repeat("0", n-len(s)) + s, pos + width, nil
}

// charCodec packs each character separately, CharBits bits at a time.
type charCodec struct {
	enc charclass.Encoding
}

func (c charCodec) encode(w *bitstream.Writer, s string) error {
	for i := 0; i < len(s); i++ {
		v, ok := c.enc.EncodeChar(s[i])
		if !ok {
			return dlerror.New(dlerror.SyntaxError,
				"character %q of %q can't be encoded as %s", s[i], s, c.enc)
		}
		w.WriteUint(v, c.enc.CharBits())
	}
	return nil
}

func (c charCodec) decode(b bitstream.Bits, pos, n int) (string, int, error) {
	bits := c.enc.CharBits()
	sb := &strings.Builder{}
	sb.Grow(n)
	for i := 0; i < n; i++ {
		v, err := b.Uint(pos, bits)
		if err != nil {
			return "", pos, truncated(err)
		}
		ch, ok := c.enc.DecodeChar(v)
		if !ok {
			return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
				"%d isn't a %s character", v, c.enc)
		}
		sb.WriteByte(ch)
		pos += bits
	}
	return sb.String(), pos, nil
}

func truncated(err error) error {
	return dlerror.Wrap(err, dlerror.UnsupportedBinaryCode, "compressed data is truncated")
}

// encodeTagged writes a 3-bit encoding tag, an optional length prefix, and
// s packed with the narrowest encoding that holds it.
func encodeTagged(w *bitstream.Writer, s string, lengthBits int) error {
	enc := charclass.Classify(s)
	codec, err := codecFor(enc)
	if err != nil {
		return err
	}
	w.WriteUint(uint64(enc), charclass.TagBits)
	if lengthBits > 0 {
		if len(s) >= 1<<uint(lengthBits) {
			return dlerror.New(dlerror.SyntaxError,
				"%q is too long to compress", s)
		}
		w.WriteUint(uint64(len(s)), lengthBits)
	}
	return codec.encode(w, s)
}

// decodeTagged reverses encodeTagged. If lengthBits is 0, the value has the
// fixed length n.
func decodeTagged(b bitstream.Bits, pos, lengthBits, n int) (string, int, error) {
	tag, err := b.Uint(pos, charclass.TagBits)
	if err != nil {
		return "", pos, truncated(err)
	}
	pos += charclass.TagBits
	codec, err := codecFor(charclass.Encoding(tag))
	if err != nil {
		return "", pos, err
	}
	if lengthBits > 0 {
		length, err := b.Uint(pos, lengthBits)
		if err != nil {
			return "", pos, truncated(err)
		}
		if int(length) > n {
			return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
				"length %d at bit %d exceeds the maximum of %d", length, pos, n)
		}
		pos += lengthBits
		n = int(length)
	}
	return codec.decode(b, pos, n)
}

// encodeValue writes an AI's value by walking its format segments.
func encodeValue(w *bitstream.Writer, e *aitable.Entry, value string) error {
	rest := value
	for _, seg := range e.Segments {
		var part string
		if seg.Fixed {
			if len(rest) < seg.Length {
				return dlerror.New(dlerror.SyntaxError,
					"AI %s value %q is too short for its format %v",
					e.AI, value, e.Segments)
			}
			part, rest = rest[:seg.Length], rest[seg.Length:]
		} else {
			n := len(rest)
			if n > seg.Length {
				n = seg.Length
			}
			part, rest = rest[:n], rest[n:]
		}

		var err error
		switch {
		case !seg.Alphanumeric && seg.Fixed:
			err = numericCodec{}.encode(w, part)
		case !seg.Alphanumeric:
			w.WriteUint(uint64(len(part)), charclass.LengthBits(seg.Length))
			err = numericCodec{}.encode(w, part)
		case seg.Fixed:
			err = encodeTagged(w, part, 0)
		default:
			err = encodeTagged(w, part, charclass.LengthBits(seg.Length))
		}
		if err != nil {
			return dlerror.Wrap(err, dlerror.SyntaxError,
				"unable to compress AI %s", e.AI)
		}
	}
	if rest != "" {
		return dlerror.New(dlerror.SyntaxError,
			"AI %s value %q is too long for its format %v", e.AI, value, e.Segments)
	}
	return nil
}

// decodeValue reads an AI's value, returning it and the following position.
func decodeValue(b bitstream.Bits, pos int, e *aitable.Entry) (string, int, error) {
	sb := &strings.Builder{}
	for _, seg := range e.Segments {
		var part string
		var err error
		switch {
		case !seg.Alphanumeric && seg.Fixed:
			part, pos, err = numericCodec{}.decode(b, pos, seg.Length)
		case !seg.Alphanumeric:
			lengthBits := charclass.LengthBits(seg.Length)
			var n uint64
			if n, err = b.Uint(pos, lengthBits); err != nil {
				return "", pos, truncated(err)
			}
			if int(n) > seg.Length {
				return "", pos, dlerror.New(dlerror.UnsupportedBinaryCode,
					"AI %s has %d digits, but at most %d are allowed",
					e.AI, n, seg.Length)
			}
			part, pos, err = numericCodec{}.decode(b, pos+lengthBits, int(n))
		case seg.Fixed:
			part, pos, err = decodeTagged(b, pos, 0, seg.Length)
		default:
			part, pos, err = decodeTagged(b, pos, charclass.LengthBits(seg.Length), seg.Length)
		}
		if err != nil {
			return "", pos, err
		}
		sb.WriteString(part)
	}
	return sb.String(), pos, nil
}
