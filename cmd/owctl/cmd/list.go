// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate all devices on the 1-wire bus",
	Long: `Enumerate all devices on the 1-wire bus, one search pass per device,
and print their 64-bit addresses in bus order.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	d, closer, err := openBus()
	if err != nil {
		return err
	}
	defer closer()

	n := 0
	s := d.Searcher(false)
	for s.Next() {
		printAddress(s.Address())
		n++
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("search failed after %d device(s): %w", n, err)
	}
	if n == 0 {
		fmt.Fprintln(stdout, "no devices found")
	} else if verbose {
		fmt.Fprintf(stdout, "%d device(s) found\n", n)
	}
	return nil
}
