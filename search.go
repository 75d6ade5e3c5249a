// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// 1-wire ROM search, the binary discrepancy walk from Maxim application
// note 187.
//
// Every pass resets the bus, sends a search command and resolves the 64
// address bits one triplet at a time. Positions where more than one device
// answered with opposing bits are recorded in a discrepancy bitmap; the
// next pass replays the same path up to the highest such position, takes
// the 1-branch there, and so discovers one new address per pass until no
// unexplored branch remains.

package onewire

import (
	"errors"
	"math/bits"
)

// searchState is the outcome of one completed search pass.
type searchState struct {
	// addr holds the bits of the most recently discovered address.
	addr uint64
	// discrepancies marks the bit positions at which more than one device
	// disagreed during the pass; a zero bitmap means every branch of the
	// address tree has been visited.
	discrepancies uint64
}

func (s *searchState) addrBit(i uint) bool {
	return s.addr>>i&1 == 1
}

func (s *searchState) setAddrBit(i uint, v bool) {
	if v {
		s.addr |= 1 << i
	} else {
		s.addr &^= 1 << i
	}
}

func (s *searchState) setDiscrepancy(i uint) {
	s.discrepancies |= 1 << i
}

func (s *searchState) clearDiscrepancy(i uint) {
	s.discrepancies &^= 1 << i
}

// lastDiscrepancy returns the highest bit position with an unexplored
// branch, or 0 if there is none.
func (s *searchState) lastDiscrepancy() uint {
	if s.discrepancies == 0 {
		return 0
	}
	return uint(63 - bits.LeadingZeros64(s.discrepancies))
}

// progress distinguishes a search that has not completed a pass yet from
// one carrying the state of its last pass. The first pass always takes the
// 0-branch on a discrepancy; keeping the distinction explicit keeps that
// rule a separate code path instead of a nil check.
type progress struct {
	started bool
	state   searchState
}

// searchPass performs one reset / command / 64-triplet cycle and returns
// the state holding the discovered address. ok is false, with a nil error,
// when the enumeration is exhausted: no unexplored branch was left, no
// device answered the reset, or the bus emptied mid-walk.
func searchPass(bus BusSearcher, cmd byte, prev progress) (next searchState, ok bool, _ error) {
	if prev.started && prev.state.discrepancies == 0 {
		// Every branch of the address tree has been visited.
		return searchState{}, false, nil
	}

	// Reset the bus and send the search command. No presence pulse means an
	// empty bus, which ends the enumeration without error.
	if err := bus.Tx([]byte{cmd}, nil, WeakPullup); err != nil {
		var nde NoDevicesError
		if errors.As(err, &nde) && nde.NoDevices() {
			return searchState{}, false, nil
		}
		return searchState{}, false, err
	}

	next = prev.state
	prevLast := prev.state.lastDiscrepancy()

	for i := uint(0); i < 64; i++ {
		// The direction to drive if the devices disagree at this position.
		var direction byte
		switch {
		case !prev.started:
			// First pass: always descend the 0-branch, finding the address
			// that comes first in bus bit order.
		case i < prevLast:
			// Above the last discrepancy the path is already determined:
			// replay the previous pass bit for bit.
			if prev.state.addrBit(i) {
				direction = 1
			}
		case i == prevLast:
			// The branch the previous pass left unexplored.
			direction = 1
		default:
			// Untrodden territory, descend the 0-branch.
		}

		tr, err := bus.SearchTriplet(direction)
		if err != nil {
			return searchState{}, false, err
		}

		outcome, bit := tr.classify()
		switch outcome {
		case tripletNoDevices:
			// The bus emptied mid-walk.
			return searchState{}, false, nil
		case tripletDiscrepancy:
			if !prev.started || i > prevLast {
				// A position that has not been fully explored yet.
				next.setDiscrepancy(i)
			} else if i == prevLast {
				// Both branches have now been taken. No re-check that the
				// devices still disagree here: the previous pass already
				// proved two branches exist at this position.
				next.clearDiscrepancy(i)
			}
			next.setAddrBit(i, bit)
		default:
			next.setAddrBit(i, bit)
		}
	}
	return next, true, nil
}

// searchPhase makes the terminal state of a Searcher explicit: once
// finished, whether by exhaustion or by error, a Searcher never produces
// another address.
type searchPhase int

const (
	searchReady searchPhase = iota
	searchFinished
)

// Searcher enumerates the devices on a 1-wire bus one address per call to
// Next.
//
// Addresses come out in the order of their bits on the wire, i.e. ascending
// when compared least significant bit first, because every pass exhausts
// the 0-branch of a discrepancy before the 1-branch.
//
// A Searcher is not restartable: once Next has returned false it keeps
// returning false, even if the bus population changes afterwards. It must
// have exclusive use of the bus between the first and the last call to
// Next; interleaved traffic corrupts the walk.
type Searcher struct {
	bus   BusSearcher
	cmd   byte
	phase searchPhase
	prev  progress
	addr  Address
	err   error
}

// NewSearcher returns a Searcher enumerating all devices on the bus, or
// only the devices currently in alarm state if alarmOnly is true.
func NewSearcher(bus BusSearcher, alarmOnly bool) *Searcher {
	cmd := SearchROM
	if alarmOnly {
		cmd = AlarmSearch
	}
	return &Searcher{bus: bus, cmd: cmd}
}

// Next performs one search pass and reports whether it discovered a
// device, which is then available from Address. It returns false when the
// bus is exhausted or when a pass failed; Err tells the two apart.
func (s *Searcher) Next() bool {
	if s.phase == searchFinished {
		return false
	}
	state, ok, err := searchPass(s.bus, s.cmd, s.prev)
	if err != nil {
		s.phase = searchFinished
		s.err = err
		return false
	}
	if !ok {
		s.phase = searchFinished
		return false
	}
	addr := Address(state.addr)
	if !CheckCRC(addr.Bytes()) {
		// A corrupted address means the bus traffic is no longer
		// trustworthy, so the walk stops here rather than steering further
		// passes with bad state.
		s.phase = searchFinished
		s.err = checksumError("onewire: invalid CRC on discovered address " + addr.String())
		return false
	}
	s.prev = progress{started: true, state: state}
	s.addr = addr
	return true
}

// Address returns the device discovered by the last successful call to
// Next.
func (s *Searcher) Address() Address {
	return s.addr
}

// Err returns the error that ended the enumeration, if any. A nil return
// after Next returned false means the bus was cleanly exhausted.
func (s *Searcher) Err() error {
	return s.err
}

// Search performs a full enumeration of the bus and returns the addresses
// of all devices, or of the devices in alarm state if alarmOnly is true.
//
// If an error occurs during the search the already discovered devices are
// returned with the error.
func Search(bus BusSearcher, alarmOnly bool) ([]Address, error) {
	var devices []Address
	s := NewSearcher(bus, alarmOnly)
	for s.Next() {
		devices = append(devices, s.Address())
	}
	return devices, s.Err()
}
