// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/onewire"
	"github.com/GermanBionicSystems/onewire/ds248x"
)

var (
	// Global flags.
	busName string
	busAddr int
	verbose bool

	// stdout handles ANSI escapes on all platforms.
	stdout io.Writer = colorable.NewColorableStdout()
)

var rootCmd = &cobra.Command{
	Use:   "owctl",
	Short: "Control 1-wire devices behind a ds248x I²C bridge",
	Long: `owctl talks to the 1-wire devices reachable through a DS2482-100,
DS2482-800 or DS2483 I²C to 1-wire bridge.

Examples:
  owctl list                        # Enumerate all devices on the bus
  owctl alarms                      # Enumerate devices in alarm state
  owctl temp                        # Read all temperature sensors
  owctl list --bus /dev/i2c-1 --addr 0x19`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&busName, "bus", "b", "",
		"I²C bus name or number, empty for the first available")
	rootCmd.PersistentFlags().IntVarP(&busAddr, "addr", "a", 0x18,
		"I²C address of the ds248x bridge (0x18, 0x19, 0x20 or 0x21)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
}

// openBus initializes the host drivers and opens the ds248x bridge on the
// selected I²C bus. The returned closer releases the I²C bus.
func openBus() (*ds248x.Dev, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing host: %w", err)
	}
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("opening I²C bus: %w", err)
	}
	d, err := ds248x.New(b, uint16(busAddr), &ds248x.DefaultOpts)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return d, b.Close, nil
}

// familyNames maps the family codes of common 1-wire devices.
var familyNames = map[byte]string{
	0x10: "DS18S20",
	0x22: "DS1822",
	0x26: "DS2438",
	0x28: "DS18B20",
	0x2d: "DS2431",
	0x3b: "MAX31850",
	0x42: "DS28EA00",
}

// printAddress renders one device address, the family name in green when it
// is known.
func printAddress(a onewire.Address) {
	name := familyNames[a.Family()]
	if name == "" {
		fmt.Fprintf(stdout, "%s  family %#02x  serial %#012x\n", a, a.Family(), a.Serial())
		return
	}
	fmt.Fprintf(stdout, "%s  family %#02x  serial %#012x  \x1b[32m%s\x1b[0m\n",
		a, a.Family(), a.Serial(), name)
}
