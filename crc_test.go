// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import "testing"

func TestCalcCRC(t *testing.T) {
	var tests = []struct {
		buf    []byte
		result byte
	}{
		// CRC-8/MAXIM-DOW check value.
		{buf: []byte("123456789"), result: 0xa1},
		{buf: []byte{0x01}, result: 0x5e},
		{buf: []byte{0x00}, result: 0x00},
		{buf: nil, result: 0x00},
	}
	for _, test := range tests {
		if res := CalcCRC(test.buf); res != test.result {
			t.Errorf("CalcCRC(%#v)!=%#02x received %#02x", test.buf, test.result, res)
		}
	}
}

func TestCheckCRC(t *testing.T) {
	if !CheckCRC([]byte{0x01, 0x5e}) {
		t.Error("valid buffer rejected")
	}
	if CheckCRC([]byte{0x01, 0x5f}) {
		t.Error("corrupted buffer accepted")
	}
	if CheckCRC([]byte{0x01}) {
		t.Error("single byte cannot carry a checksum")
	}
	// Addresses assembled by MakeAddress must self-validate.
	for _, serial := range []uint64{0, 1, 0x123456789abc, 0xffffffffffff} {
		a := MakeAddress(0x28, serial)
		if !CheckCRC(a.Bytes()) {
			t.Errorf("MakeAddress(0x28, %#x) = %s has an invalid checksum", serial, a)
		}
	}
}
