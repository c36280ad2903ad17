/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package epc decodes SGTIN encoded EPCs, as read from RFID tags, into the GS1
// identifiers they carry, so a tag read can be turned into a GS1 Digital Link.
//
// It follows the EPC Tag Data Standard, Release 1.12:
//   - https://www.gs1.org/standards/epcrfid-epcis-id-keys/epc-rfid-tds/1-12
//   - https://www.gs1.org/sites/default/files/docs/epc/GS1_EPC_TDS_i1_12.pdf
//
// An EPC is an identifier, not its binary encoding: the same SGTIN may be
// written to a tag as SGTIN-96 or SGTIN-198, and both are the same EPC when
// their Pure Identity URIs match character for character. The tag data
// standard puts it this way:
//
//	"A long binary encoding (e.g., SGTIN-198) is not a different EPC from a
//	short binary encoding (e.g., SGTIN-96) if the GS1 Company Prefix, item
//	reference with indicator, and serial numbers are identical."
//
// For that reason, decoded SGTINs are best exchanged as either the Pure
// Identity URI (URI) or the GS1 element data (ElementData), which maps AI 01
// to the GTIN and AI 21 to the serial, ready for a Digital Link.
package epc
