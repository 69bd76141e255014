// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/mmichal10/open-cas-linux/lib/report"
)

func decodeCommand(args []string, stdout, stderr io.Writer) error {
	var table bool
	var color string

	flagSet := pflag.NewFlagSet("cas-signals decode", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&table, "table", false, "render the summary table instead of diagnostic notation")
	flagSet.StringVar(&color, "color", string(report.ColorAuto), "summary colour with --table: auto, always, never")
	flagSet.BoolP("help", "h", false, "show help")

	if help, err := parse(flagSet, args, stderr, printDecodeHelp); help || err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("decode takes exactly one record file, got %d arguments", flagSet.NArg())
	}

	data, err := report.ReadRecordData(flagSet.Arg(0))
	if err != nil {
		return err
	}

	if table {
		colorMode, err := report.ParseColorMode(color)
		if err != nil {
			return err
		}
		records, err := report.DecodeRecords(data)
		if err != nil {
			return err
		}
		return report.Render(stdout, records, colorMode)
	}

	notations, err := report.DiagnoseRecords(data)
	if err != nil {
		return err
	}
	for _, notation := range notations {
		fmt.Fprintln(stdout, notation)
	}
	return nil
}

func printDecodeHelp(w io.Writer) {
	fmt.Fprint(w, `Print a run record written by "run --record" or "verify --record".

Each run in the file is printed as one line of CBOR diagnostic notation
(RFC 8949). The compression is chosen from the file extension.

Usage:
  cas-signals decode [flags] <record-file>

Flags:
`)
}
