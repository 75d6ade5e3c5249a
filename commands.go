// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// ROM function commands understood by every 1-wire device, sent as the first
// byte after a reset.
const (
	// ReadROM reads the address of the only device on the bus.
	ReadROM byte = 0x33
	// MatchROM selects the one device whose address follows; all others
	// ignore the rest of the transaction.
	MatchROM byte = 0x55
	// SkipROM addresses all devices on the bus at once.
	SkipROM byte = 0xcc
	// SearchROM starts a search pass in which every device participates.
	SearchROM byte = 0xf0
	// AlarmSearch starts a search pass in which only devices currently in
	// alarm state participate.
	AlarmSearch byte = 0xec
)
