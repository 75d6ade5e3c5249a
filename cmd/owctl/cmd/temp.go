// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/onewire"
	"github.com/GermanBionicSystems/onewire/ds18b20"
)

var resolutionBits int

var tempCmd = &cobra.Command{
	Use:   "temp",
	Short: "Read all temperature sensors on the bus",
	Long: `Enumerate the bus, start a temperature conversion on all supported
sensors at once and read the result of each one.`,
	RunE: runTemp,
}

func init() {
	rootCmd.AddCommand(tempCmd)

	tempCmd.Flags().IntVarP(&resolutionBits, "resolution", "r", 10,
		"conversion resolution in bits (9..12)")
}

// isTempSensor reports whether the family code belongs to a sensor the
// ds18b20 package can drive.
func isTempSensor(a onewire.Address) bool {
	switch ds18b20.Family(a.Family()) {
	case ds18b20.DS18B20, ds18b20.DS18S20, 0x22, 0x3b, 0x42:
		return true
	}
	return false
}

func runTemp(cmd *cobra.Command, args []string) error {
	d, closer, err := openBus()
	if err != nil {
		return err
	}
	defer closer()

	addrs, err := d.Search(false)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	var sensors []onewire.Address
	for _, a := range addrs {
		if isTempSensor(a) {
			sensors = append(sensors, a)
		}
	}
	if len(sensors) == 0 {
		return fmt.Errorf("no temperature sensors among the %d device(s) on the bus", len(addrs))
	}

	// One conversion for the whole bus, then read each scratchpad.
	if err := ds18b20.ConvertAll(d, resolutionBits); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	for _, a := range sensors {
		dev, err := ds18b20.New(d, a, resolutionBits)
		if err != nil {
			return err
		}
		t, err := dev.LastTemp()
		if err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		fmt.Fprintf(stdout, "%s  \x1b[33m%s\x1b[0m\n", a, t)
	}
	return nil
}
