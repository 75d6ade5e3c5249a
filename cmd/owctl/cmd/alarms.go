// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var alarmsCmd = &cobra.Command{
	Use:   "alarms",
	Short: "Enumerate devices in alarm state",
	Long: `Run a conditional search on the 1-wire bus: only devices whose alarm
flag is set answer, for example a DS18B20 whose last conversion fell
outside its TH/TL window.`,
	RunE: runAlarms,
}

func init() {
	rootCmd.AddCommand(alarmsCmd)
}

func runAlarms(cmd *cobra.Command, args []string) error {
	d, closer, err := openBus()
	if err != nil {
		return err
	}
	defer closer()

	n := 0
	s := d.Searcher(true)
	for s.Next() {
		fmt.Fprint(stdout, "\x1b[31malarm\x1b[0m  ")
		printAddress(s.Address())
		n++
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("alarm search failed after %d device(s): %w", n, err)
	}
	if n == 0 {
		fmt.Fprintln(stdout, "no devices in alarm state")
	}
	return nil
}
