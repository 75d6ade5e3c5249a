// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds248x

const (
	cmdReset         = 0xf0 // reset ds248x
	cmdSetReadPtr    = 0xe1 // set the read pointer
	cmdWriteConfig   = 0xd2 // write the device configuration
	cmdAdjPort       = 0xc3 // adjust 1-wire port (ds2483)
	cmdChannelSelect = 0xc3 // channel select (ds2482-800)
	cmd1WReset       = 0xb4 // reset the 1-wire bus
	cmd1WBit         = 0x87 // perform a single-bit transaction on the 1-wire bus
	cmd1WWrite       = 0xa5 // perform a byte write on the 1-wire bus
	cmd1WRead        = 0x96 // perform a byte read on the 1-wire bus
	cmd1WTriplet     = 0x78 // perform a triplet operation (2 bit reads, a bit write)

	regDCR    = 0xc3 // read ptr for device configuration register
	regStatus = 0xf0 // read ptr for status register
	regRDR    = 0xe1 // read ptr for read-data register
	regPCR    = 0xb4 // read ptr for port configuration register
	regCSR    = 0xd2 // read ptr for channel selection register

	// ds2482-800 channel selection codes to be written and read back
	cscIO0w = 0xF0 // channel 0 writing
	cscIO0r = 0xB8 // channel 0 reading
	cscIO1w = 0xE1 // channel 1 writing
	cscIO1r = 0xB1 // channel 1 reading
	cscIO2w = 0xD2 // channel 2 writing
	cscIO2r = 0xAA // channel 2 reading
	cscIO3w = 0xC3 // channel 3 writing
	cscIO3r = 0xA3 // channel 3 reading
	cscIO4w = 0xB4 // channel 4 writing
	cscIO4r = 0x9C // channel 4 reading
	cscIO5w = 0xA5 // channel 5 writing
	cscIO5r = 0x95 // channel 5 reading
	cscIO6w = 0x96 // channel 6 writing
	cscIO6r = 0x8E // channel 6 reading
	cscIO7w = 0x87 // channel 7 writing
	cscIO7r = 0x87 // channel 7 reading

	isDS2482x100 = 0 // DS2482-100 selected
	isDS2482x800 = 1 // DS2482-800 selected
	isDS2483     = 2 // DS2483 selected
)

// shortedBusError implements error and onewire.ShortedBusError.
type shortedBusError string

func (e shortedBusError) Error() string   { return string(e) }
func (e shortedBusError) IsShorted() bool { return true }
func (e shortedBusError) BusError() bool  { return true }

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }

// noDevicesError implements error and onewire.NoDevicesError. It is
// returned by a transaction when no device answered the reset with a
// presence pulse, which ends a search without error.
type noDevicesError string

func (e noDevicesError) Error() string   { return string(e) }
func (e noDevicesError) NoDevices() bool { return true }

// errTimeout is the persistent error set when the chip stops answering.
type errTimeout string

func (e errTimeout) Error() string { return string(e) }
