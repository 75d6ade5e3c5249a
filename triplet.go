// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// TripletResult is the outcome of a single-bit search triplet: two read
// time slots in which the participating devices place one address bit and
// its complement, and a write slot driving the direction the search takes.
//
// Devices whose address bit disagrees with the driven direction drop out of
// the search pass until the next reset.
type TripletResult struct {
	GotZero bool // a device with a 0 at the current position answered
	GotOne  bool // a device with a 1 at the current position answered
	Taken   byte // direction the master drove, 0 or 1
}

// tripletOutcome classifies the two sampled bits:
//
//	bit  complement  outcome
//	 0       1       every device carries a 0 here
//	 1       0       every device carries a 1 here
//	 0       0       devices disagree
//	 1       1       no device answered the slot
type tripletOutcome int

const (
	tripletAllMatch tripletOutcome = iota
	tripletDiscrepancy
	tripletNoDevices
)

// classify folds the sample into an outcome and the bit value a search pass
// records for the current position: the common bit when the devices agree,
// the direction taken when they disagree.
func (t TripletResult) classify() (tripletOutcome, bool) {
	switch {
	case t.GotZero && t.GotOne:
		return tripletDiscrepancy, t.Taken != 0
	case t.GotZero:
		return tripletAllMatch, false
	case t.GotOne:
		return tripletAllMatch, true
	default:
		return tripletNoDevices, false
	}
}
