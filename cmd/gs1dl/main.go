/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// gs1dl converts between GS1 element strings, AI data and GS1 Digital Links.
//
// Usage:
//
//	gs1dl analyse [flags] <uri>
//	gs1dl extract [flags] <uri>
//	gs1dl build [flags] <element-string>
//	gs1dl compress [flags] <uri>
//	gs1dl decompress [flags] <uri>
//	gs1dl element [flags] <uri>
//	gs1dl semantics [flags] <uri>
//	gs1dl epc [flags] <hex-epc | pure-identity-uri>
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// version is set at link time.
var version = "dev"

type command func(args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"analyse":    analyseCmd,
	"extract":    extractCmd,
	"build":      buildCmd,
	"compress":   compressCmd,
	"decompress": decompressCmd,
	"element":    elementCmd,
	"semantics":  semanticsCmd,
	"epc":        epcCmd,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code: 0 on success,
// 1 if the command fails and 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	name, args := args[0], args[1:]
	switch name {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "gs1dl %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
		printUsage(stderr)
		return 2
	}

	if err := cmd(args, stdout, stderr); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if _, ok := err.(usageError); ok {
			return 2
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `gs1dl - Convert between GS1 element strings and GS1 Digital Links

USAGE
    gs1dl <command> [flags] <input>

COMMANDS
    analyse     Break a URI into its Digital Link parts (--extended for content)
    extract     Extract the AI data of a Digital Link
    build       Build a Digital Link from an element string
    compress    Compress a Digital Link (--partial for partial compression)
    decompress  Decompress a Digital Link
    element     Convert a Digital Link to an element string
    semantics   Describe a Digital Link as JSON-LD
    epc         Turn an SGTIN EPC (hex or pure identity URI) into a Digital Link
    version     Show version

FLAGS
    --config <file>       YAML config: uri_stem, use_optimisations,
                          compress_non_gs1, output, log_level
    -o, --output <fmt>    text, json, yaml or cbor (default text)
    --stem <uri>          URI stem of built links (default https://id.gs1.org)
    --optimise            use the optimisation table when compressing (default true)
    --compress-non-gs1    pack non-GS1 query pairs into compressed links
    --debug               log at debug level

EXAMPLES
    # Build an uncompressed link from a bracketed element string
    gs1dl build '(01)09506000134352(10)ABC123'

    # Compress it
    gs1dl compress https://id.gs1.org/01/09506000134352/10/ABC123

    # Read an SGTIN-96 tag into a compressed link
    gs1dl epc --form compressed 30143639F84191AD22901607
`)
}
