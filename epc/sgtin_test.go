/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package epc

import (
	"fmt"
	"math/rand"
	"strconv"
	"testing"

	"github.com/intel/rsp-sw-toolkit-im-suite-digitallink/bitstream"
	"github.com/intel/rsp-sw-toolkit-im-suite-expect"
)

func TestDecodeSGTIN(t *testing.T) {
	type decodeTest struct {
		name, epc string
		gtin, uri string
		// undecodable EPCs fail DecodeSGTIN; outOfRange ones fail ValidateRanges
		undecodable, outOfRange bool
	}

	decodes := func(name, epc, gtin, uri string) decodeTest {
		return decodeTest{name: name, epc: epc, gtin: gtin, uri: uri}
	}
	undecodable := func(name, epc string) decodeTest {
		return decodeTest{name: name, epc: epc, undecodable: true}
	}
	outOfRange := func(name, epc string) decodeTest {
		return decodeTest{name: name, epc: epc, outOfRange: true}
	}

	for i, tt := range []decodeTest{
		decodes("partition0", "300000000000044000000001", "10000000000014", "000000000001.1.1"),
		decodes("partition1", "300400000000204000000001", "00000000000116", "00000000001.01.1"),
		decodes("partition2", "300800000001004000000001", "00000000001014", "0000000001.001.1"),
		decodes("partition3", "300C00000010004000000001", "00000000010016", "000000001.0001.1"),
		decodes("partition4", "301000000080004000000001", "00000000100014", "00000001.00001.1"),
		decodes("partition5", "301400000400004000000001", "00000001000016", "0000001.000001.1"),
		decodes("partition6", "301800004000004000000001", "00000010000014", "000001.0000001.1"),
		decodes("zero company prefix", "301800000000004000000001", "00000000000017", "000000.0000001.1"),
		decodes("zero item ref", "301800004000000000000001", "00000010000007", "000001.0000000.1"),

		decodes("UPC-A", "30143639F84191AD22901607", "00888446671424", "0888446.067142.193853396487"),
		decodes("UPC-A", "3034257BF400B7800004CB2F", "00614141007349", "0614141.000734.314159"),
		decodes("indicator 4", "300000662D3D311048C6D8D9", "40004285602049", "000428560204.4.69940467929"),
		decodes("indicator 1", "3000011B896A506B29C18539", "10011892394440", "001189239444.1.185384142137"),
		decodes("indicator with item ref", "301000181C2CC193A8B43711", "40001234458306", "00012344.45830.84434761489"),
		decodes("indicator 6 partition1", "30244032EACFF145202001E8", "60861662988790", "08616629887.69.22013805032"),

		decodes("198 numeric serial", "36143639F8419198B966E1AB366E5B3470DC00000000000000",
			"00888446671424", "0888446.067142.193853396487"),
		decodes("198 escaped serial", "36143639F84191A465D9B37A176C5EB1769D72E557D52E5CBC",
			"00888446671424", "0888446.067142.Hello!;1=1;'..*_*..%2F"),
		decodes("198 indicator with item ref", "361000181C2CC1A465D9B37A176C5EB1769D72E557D52E5CBC",
			"40001234458306", "00012344.45830.Hello!;1=1;'..*_*..%2F"),
		decodes("198 indicator 7", "36244032EACFF1A465D9B37A176C5EB1769D72E557D52E5CBC",
			"70861662988704", "08616629887.70.Hello!;1=1;'..*_*..%2F"),

		undecodable("empty", ""),
		undecodable("not hex", "30Z4"),
		undecodable("unknown header", "E2801160600002054CC2096F"),
		undecodable("long SGTIN-96", "30180000400000400000000011"),
		undecodable("short SGTIN-96", "3018000040000040000000"),
		undecodable("long SGTIN-198", "36143639F84191A465D9B37A176C5EB1769D72E557D52E5CBADDFC"),
		undecodable("short SGTIN-198", "36143636C5EB1769D72E557D52E5CBADDFC"),
		undecodable("partition 7", "301C00004000004000000001"),

		outOfRange("reserved filter", "306000000000044000000001"),
		outOfRange("indicator above 9", "3004000000003E8000000001"),
		outOfRange("control chars in serial", "36044032EAC191A465D9B37A176C5EB1769D72E557D5200CBC"),
	} {
		t.Run(fmt.Sprintf("%02d_%s", i, tt.name), func(t *testing.T) {
			w := expect.WrapT(t)

			s, err := DecodeSGTINString(tt.epc)
			if tt.undecodable {
				w.As(tt.epc).ShouldFail(err)
				return
			}
			w.As(tt.epc).ShouldSucceed(err)

			if tt.outOfRange {
				w.As(fmt.Sprintf("%s: %+v", tt.epc, s)).ShouldFail(s.ValidateRanges())
				w.ShouldHaveError(ParseTag(tt.epc))
				return
			}
			w.ShouldSucceed(s.ValidateRanges())
			w.ShouldBeEqual(s.GTIN(), tt.gtin)
			w.ShouldBeEqual(s.URI(), SGTINPureURIPrefix+":"+tt.uri)
		})
	}
}

// referenceCheckDigit weights digits 3,1,3,... from the right.
func referenceCheckDigit(body string) int {
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[len(body)-1-i] - '0')
		if i%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func TestSGTIN_checkDigit(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	w := expect.WrapT(t)
	for p := range partitions {
		for i := 0; i < 200; i++ {
			s := SGTIN{
				partition:     p,
				indicator:     rnd.Intn(10),
				companyPrefix: rnd.Intn(partitions[p].maxCompanyPrefix() + 1),
				itemRef:       rnd.Intn(partitions[p].itemRefs()),
				serial:        "1",
			}
			w.StopOnMismatch().ShouldSucceed(s.ValidateRanges())

			body := s.body()
			w.ShouldBeEqual(len(body), 13)
			c := s.checkDigit()
			w.As(body).ShouldBeEqual(c, referenceCheckDigit(body))
			w.ShouldBeEqual(s.GTIN(), body+strconv.Itoa(c))
		}
	}
}

func TestSGTIN_CanSGTIN96(t *testing.T) {
	for i, tt := range []struct {
		serial string
		fits   bool
	}{
		{"0", true},
		{"1", true},
		{"10", true},
		{"274877906943", true},

		{"", false},
		{"274877906944", false},
		{"A1", false},
		{"00", false},
		{"000", false},
		{" 0", false},
		{"01", false},
	} {
		t.Run(fmt.Sprintf("%02d_%q", i, tt.serial), func(t *testing.T) {
			w := expect.WrapT(t)
			err := SGTIN{serial: tt.serial}.CanSGTIN96()
			if tt.fits {
				w.ShouldSucceed(err)
			} else {
				w.ShouldFail(err)
			}
		})
	}
}

func TestFilterValue(t *testing.T) {
	w := expect.WrapT(t)
	for fv := FilterValue(0); fv < 8; fv++ {
		w.As(fv.String()).ShouldBeEqual(fv.IsValid(), fv != 3 && fv != 5)
	}
	w.ShouldBeEqual(FilterValue(5).String(), "Reserved")
	w.ShouldBeEqual(UnitLoad.String(), "Unit Load")
	w.ShouldBeFalse(FilterValue(8).IsValid())
}

func TestSGTIN_ElementData(t *testing.T) {
	w := expect.WrapT(t).StopOnMismatch()
	s := w.ShouldHaveResult(DecodeSGTINString("30143639F84191AD22901607")).(SGTIN)
	w.ShouldSucceed(s.ValidateRanges())
	w.ShouldBeEqual(s.ElementData(), map[string]string{
		"01": "00888446671424",
		"21": "193853396487",
	})
	w.ShouldBeEqual(s.Filter(), Other)
	w.ShouldBeEqual(s.CompanyPrefix(), "0888446")
	w.ShouldBeEqual(s.ItemReference(), "67142")
}

func TestParseSGTINURI(t *testing.T) {
	for i, epc := range []string{
		"30143639F84191AD22901607",
		"300000662D3D311048C6D8D9",
		"30244032EACFF145202001E8",
		"36143639F84191A465D9B37A176C5EB1769D72E557D52E5CBC",
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t).StopOnMismatch()
			decoded := w.ShouldHaveResult(DecodeSGTINString(epc)).(SGTIN)
			parsed := w.ShouldHaveResult(ParseSGTINURI(decoded.URI())).(SGTIN)
			w.ShouldBeEqual(parsed.URI(), decoded.URI())
			w.ShouldBeEqual(parsed.GTIN(), decoded.GTIN())
			w.ShouldBeEqual(parsed.Serial(), decoded.Serial())
		})
	}
}

func TestParseSGTINURI_failures(t *testing.T) {
	for i, uri := range []string{
		"",
		"urn:epc:id:sscc:0888446.0671424.1",
		"urn:epc:id:sgtin:0888446.067142",
		"urn:epc:id:sgtin:08884.067142.1",
		"urn:epc:id:sgtin:0888446.06714.1",
		"urn:epc:id:sgtin:08884A6.067142.1",
		"urn:epc:id:sgtin:0888446.+67142.1",
		"urn:epc:id:sgtin:0888446.067142.",
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			w.As(uri).ShouldHaveError(ParseSGTINURI(uri))
		})
	}
}

func encodeASCII(w *bitstream.Writer, s string) {
	for i := 0; i < len(s); i++ {
		w.WriteUint(uint64(s[i]), asciiBits)
	}
}

func TestDecodeASCIIAt(t *testing.T) {
	for i, tt := range []struct {
		offset        int
		input         string
		count         int
		want          string
		n             int
		charAfterNull bool
	}{
		{0, "hello_world!", 12, "hello_world!", 12, false},
		{3, "0123456789", 10, "0123456789", 10, false},
		{5, "abc\x00\x00", 5, "abc\x00\x00", 3, false},
		{1, "ab\x00c", 4, "ab\x00c", 2, true},
		{2, "\"%&/<>?_", 20, "\"%&/<>?_", 8, false},
		{7, "", 3, "", 0, false},
	} {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			w := expect.WrapT(t)
			var bw bitstream.Writer
			bw.WriteUint(0, tt.offset+1)
			encodeASCII(&bw, tt.input)
			s, n, after := DecodeASCIIAt(bw.Bits(), tt.offset+1, tt.count)
			w.ShouldBeEqual(s, tt.want)
			w.ShouldBeEqual(n, tt.n)
			w.ShouldBeEqual(after, tt.charAfterNull)
		})
	}
}

func TestEscapeGS1(t *testing.T) {
	w := expect.WrapT(t)
	raw := `a"#%&/<>?z`
	escaped := EscapeGS1(raw)
	w.ShouldBeEqual(escaped, "a%22%23%25%26%2F%3C%3E%3Fz")
	w.ShouldBeEqual(UnescapeGS1(escaped), raw)
}
