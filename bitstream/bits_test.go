/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package bitstream

import (
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	"github.com/intel/rsp-sw-toolkit-im-suite-expect"
)

func TestWriter_WriteUint(t *testing.T) {
	w := expect.WrapT(t)

	var wr Writer
	wr.WriteUint(1, 1)
	wr.WriteUint(166, 8)
	wr.WriteUint(55741, 16)
	wr.WriteUint(2, 2)
	wr.WriteUint(291, 9)
	wr.WriteUint(73182, 17)
	w.ShouldBeEqual(wr.Len(), 53)

	//      a    b         c              d   e           f
	// 0b1_10100110_1101100110111101_10_100100011_10001110111011110
	b := wr.Bits()
	w.ShouldBeEqual(b.String(),
		"1"+"10100110"+"1101100110111101"+"10"+"100100011"+"10001110111011110")
	w.ShouldBeEqual(b.Bytes(), []byte{0xd3, 0x6c, 0xde, 0xd2, 0x38, 0xee, 0xf0})

	pos := 0
	for i, width := range []int{1, 8, 16, 2, 9, 17} {
		v := w.ShouldHaveResult(b.Uint(pos, width)).(uint64)
		w.As(i).ShouldBeEqual(v, []uint64{1, 166, 55741, 2, 291, 73182}[i])
		pos += width
	}
	w.ShouldHaveError(b.Uint(pos, 1))
	w.ShouldHaveError(b.Uint(0, 65))
	w.ShouldHaveError(b.Uint(-1, 3))
}

func TestWriter_panics(t *testing.T) {
	assertPanics := func(f func()) {
		defer func() {
			recover()
		}()
		f()
		t.Fatal("expected function to panic, but it didn't")
	}

	var wr Writer
	assertPanics(func() { wr.WriteUint(4, 2) })
	assertPanics(func() { wr.WriteUint(0, -1) })
	assertPanics(func() { wr.WriteBig(big.NewInt(256), 8) })
	assertPanics(func() { wr.WriteBig(big.NewInt(-1), 8) })
}

func TestBits_Big(t *testing.T) {
	w := expect.WrapT(t)

	// 20 nines needs 67 bits
	n, _ := new(big.Int).SetString("99999999999999999999", 10)
	var wr Writer
	wr.WriteUint(5, 3)
	wr.WriteBig(n, 67)
	wr.WriteUint(1, 1)

	b := wr.Bits()
	w.ShouldBeEqual(b.Len(), 71)
	got := w.ShouldHaveResult(b.Big(3, 67)).(*big.Int)
	w.ShouldBeEqual(got.String(), n.String())
	w.ShouldBeEqual(w.ShouldHaveResult(b.Uint(70, 1)).(uint64), uint64(1))
}

func TestWriter_wideUint(t *testing.T) {
	w := expect.WrapT(t)

	var wr Writer
	wr.WriteUint(3, 70)
	b := wr.Bits()
	w.ShouldBeEqual(b.Len(), 70)
	w.ShouldBeEqual(w.ShouldHaveResult(b.Big(0, 70)).(*big.Int).Int64(), int64(3))
}

func TestParseBinary(t *testing.T) {
	w := expect.WrapT(t)

	b := w.ShouldHaveResult(ParseBinary("0000000100001")).(Bits)
	w.ShouldBeEqual(b.Len(), 13)
	w.ShouldBeEqual(b.String(), "0000000100001")
	w.ShouldBeEqual(w.ShouldHaveResult(b.Uint(0, 8)).(uint64), uint64(1))

	_, err := ParseBinary("0102")
	w.ShouldFail(err)

	empty := w.ShouldHaveResult(ParseBinary("")).(Bits)
	w.ShouldBeEqual(empty.Len(), 0)
	w.ShouldBeEqual(empty.String(), "")
}

func TestFromBytes(t *testing.T) {
	w := expect.WrapT(t)

	b := w.ShouldHaveResult(FromBytes([]byte{0xFF, 0xFF}, 12)).(Bits)
	w.ShouldBeEqual(b.String(), "111111111111")
	w.ShouldBeEqual(b.Bytes(), []byte{0xFF, 0xF0})

	for _, n := range []int{9, -1} {
		_, err := FromBytes([]byte{0xFF}, n)
		w.As(n).ShouldFail(err)
	}
}

func TestSafe64(t *testing.T) {
	type test struct {
		bits, text string
	}

	for i, tt := range []test{
		{"000000", "A"},
		{"111111", "_"},
		{"111110", "-"},
		{"110100", "0"},
		{"000001000010", "BC"},
		// padded on the right to 12 bits
		{"0000011", "Bg"},
		{"1", "g"},
	} {
		t.Run(fmt.Sprintf("%02d_%s", i, tt.text), func(t *testing.T) {
			w := expect.WrapT(t)
			b := w.ShouldHaveResult(ParseBinary(tt.bits)).(Bits)
			w.ShouldBeEqual(EncodeSafe64(b), tt.text)

			back := w.ShouldHaveResult(DecodeSafe64(tt.text)).(Bits)
			w.ShouldBeEqual(back.Len(), 6*len(tt.text))
			w.ShouldBeEqual(back.String()[:len(tt.bits)], tt.bits)
		})
	}

	w := expect.WrapT(t)
	for _, s := range []string{"AB+C", "A=="} {
		_, err := DecodeSafe64(s)
		w.As(s).ShouldFail(err)
	}
}

func TestSafe64_roundTrip(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var wr Writer
		for j := rng.Intn(30); j >= 0; j-- {
			width := rng.Intn(64) + 1
			wr.WriteUint(rng.Uint64()>>uint(64-width), width)
		}
		b := wr.Bits()
		text := EncodeSafe64(b)
		back := w.ShouldHaveResult(DecodeSafe64(text)).(Bits)
		w.ShouldBeTrue(back.Len()-b.Len() < 6)
		w.ShouldBeEqual(back.String()[:b.Len()], b.String())
	}
}
