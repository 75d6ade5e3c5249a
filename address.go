// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Address is the 64-bit ROM code that uniquely identifies a device on a
// 1-wire bus.
//
// On the wire it is transmitted least significant bit first, so the low
// byte, the family code, comes first, followed by the 48-bit serial number
// and finally a CRC-8 over the preceding seven bytes:
//
//	bit 63    56 55              8 7           0
//	   +--------+-----------------+-------------+
//	   |  CRC   |  serial number  | family code |
//	   +--------+-----------------+-------------+
type Address uint64

// Family returns the family code, identifying the device type.
func (a Address) Family() byte {
	return byte(a)
}

// Serial returns the 48-bit serial number.
func (a Address) Serial() uint64 {
	return uint64(a) >> 8 & 0xffffffffffff
}

// CRC returns the checksum byte carried in the address.
func (a Address) CRC() byte {
	return byte(a >> 56)
}

func (a Address) String() string {
	return fmt.Sprintf("%#016x", uint64(a))
}

// Bytes returns the address in bus transmission order, little-endian with
// the family code first.
func (a Address) Bytes() []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(a))
	return b[:]
}

// AddressFromBytes assembles an address from the 8 bytes in bus
// transmission order. It does not validate the checksum; use CheckCRC for
// that.
func AddressFromBytes(b [8]byte) Address {
	return Address(binary.LittleEndian.Uint64(b[:]))
}

// MakeAddress builds a valid address out of a family code and a 48-bit
// serial number, computing the checksum byte. Bits of serial above 48 are
// discarded.
//
// It is mostly useful to construct synthetic devices in tests.
func MakeAddress(family byte, serial uint64) Address {
	a := uint64(family) | serial<<8&0x00ffffffffffff00
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], a)
	return Address(a | uint64(CalcCRC(b[:7]))<<56)
}

// ParseAddress parses the representation produced by Address.String, a
// 64-bit hexadecimal value with 0x prefix, and validates its checksum.
func ParseAddress(s string) (Address, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("onewire: invalid address %q: %v", s, err)
	}
	a := Address(v)
	if !CheckCRC(a.Bytes()) {
		return 0, checksumError("onewire: invalid CRC in address " + s)
	}
	return a, nil
}
