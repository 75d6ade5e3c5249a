// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// CalcCRC returns the Dallas 1-wire CRC-8 of buf: polynomial
// x⁸+x⁵+x⁴+1 processed least significant bit first (0x8c), zero initial
// value. Datasheets call it the DOW CRC.
func CalcCRC(buf []byte) byte {
	var crc byte
	for _, b := range buf {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8c
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// CheckCRC returns true if the last byte of buf is the CRC-8 of the bytes
// before it. This is the layout used by ROM addresses and by most device
// scratchpads.
func CheckCRC(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	return CalcCRC(buf[:len(buf)-1]) == buf[len(buf)-1]
}
