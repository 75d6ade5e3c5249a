// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import (
	"errors"
	"io"
)

// Pullup encodes the type of pull-up that terminates a bus transaction.
type Pullup bool

const (
	// WeakPullup ends the transaction with the weak pull-up resistor. This
	// is the default for transactions that only move data.
	WeakPullup Pullup = false
	// StrongPullup ends the transaction with the bus actively driven high so
	// parasitically powered devices can draw enough current for a
	// temperature conversion or an EEPROM write.
	StrongPullup Pullup = true
)

func (p Pullup) String() string {
	if p {
		return "Strong"
	}
	return "Weak"
}

// Bus defines the interface of a 1-wire bus master as viewed by a device
// driver.
type Bus interface {
	String() string

	// Tx performs a bus transaction: a reset pulse, the transmission of w
	// and the reception of len(r) bytes, ending with the bus released into
	// the pull-up selected by power.
	//
	// Tx returns a NoDevicesError if no device answered the reset with a
	// presence pulse.
	Tx(w, r []byte, power Pullup) error

	// Search returns the addresses of all devices on the bus if alarmOnly
	// is false, and of the devices currently in alarm state if alarmOnly is
	// true.
	//
	// If an error occurs during the search the already discovered devices
	// are returned with the error.
	Search(alarmOnly bool) ([]Address, error)
}

// BusCloser is a 1-wire bus that can be closed.
//
// It is expected to be returned by bus opener functions so the caller can
// release the underlying transport.
type BusCloser interface {
	io.Closer
	Bus
}

// BusSearcher is a bus master that exposes the single-bit search triplet,
// the primitive the search algorithm in this package is built on. Buses
// that implement it can be enumerated with Search and Searcher.
type BusSearcher interface {
	Bus
	// SearchTriplet performs a single-bit search triplet on the bus: two
	// read time slots sampling a bit and its complement across all
	// participating devices, then one write slot driving the direction
	// taken. direction is the bit to drive if the devices disagree, 0 or 1.
	SearchTriplet(direction byte) (TripletResult, error)
}

// Dev is a device on a 1-wire bus.
//
// It implements conn.Conn-like transaction semantics: every transaction is
// preceded by a match ROM sequence so that only the addressed device acts on
// the payload.
type Dev struct {
	Bus  Bus     // the bus the device is on
	Addr Address // the device's ROM address
}

func (d *Dev) String() string {
	return d.Bus.String() + "(" + d.Addr.String() + ")"
}

// Tx performs a transaction with the device: reset, match ROM with the
// device address, transmission of w and reception of len(r) bytes.
func (d *Dev) Tx(w, r []byte) error {
	return d.Bus.Tx(d.matched(w), r, WeakPullup)
}

// TxPower is like Tx but ends with the bus in strong pull-up mode so the
// device can steal power from the bus, e.g. for a temperature conversion.
func (d *Dev) TxPower(w, r []byte) error {
	return d.Bus.Tx(d.matched(w), r, StrongPullup)
}

func (d *Dev) matched(w []byte) []byte {
	ww := make([]byte, 9, 9+len(w))
	ww[0] = MatchROM
	copy(ww[1:], d.Addr.Bytes())
	return append(ww, w...)
}

// ReadAddress reads the ROM address of the only device on the bus.
//
// It must not be used when more than one device is present: all of them
// answer at once and the reply is garbled, which shows up as a checksum
// error.
func ReadAddress(bus Bus) (Address, error) {
	var rom [8]byte
	if err := bus.Tx([]byte{ReadROM}, rom[:], WeakPullup); err != nil {
		return 0, err
	}
	if !CheckCRC(rom[:]) {
		return 0, checksumError("onewire: invalid CRC reading the device address")
	}
	return AddressFromBytes(rom), nil
}

// BusError is an error on the 1-wire bus itself, as opposed to an error
// with the controller or transport used to drive it. Such errors relate to
// the current transaction and do not persist.
type BusError interface {
	error
	BusError() bool // true if a bus error was detected
}

// ShortedBusError is returned when the bus is electrically shorted to
// ground.
type ShortedBusError interface {
	error
	IsShorted() bool // true if the bus is shorted
	BusError() bool
}

// NoDevicesError is returned when no device answered the reset pulse with a
// presence pulse, for example on an empty bus or after the last device was
// unplugged.
type NoDevicesError interface {
	error
	NoDevices() bool // true if no devices are present on the bus
}

// ChecksumError is returned when a ROM address read from the bus fails CRC
// validation, meaning the bus traffic can no longer be trusted.
type ChecksumError interface {
	error
	ChecksumError() bool // true if a CRC mismatch was detected
}

// IsChecksumError returns true if err, or an error it wraps, reports a CRC
// mismatch.
func IsChecksumError(err error) bool {
	var e ChecksumError
	return errors.As(err, &e) && e.ChecksumError()
}

// checksumError is the ChecksumError returned by this package.
type checksumError string

func (e checksumError) Error() string       { return string(e) }
func (e checksumError) ChecksumError() bool { return true }

var _ ChecksumError = checksumError("")
