// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewiretest is meant to be used to test drivers over a fake
// 1-wire bus.
package onewiretest

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/onewire"
)

// IO registers the I/O that happened on either a real or fake 1-wire bus.
type IO struct {
	W    []byte
	R    []byte
	Pull onewire.Pullup
}

// Record implements onewire.Bus that records everything written to it.
//
// This can then be used to feed to Playback to do "replay" based unit
// tests.
type Record struct {
	sync.Mutex
	Bus onewire.Bus // Bus can be nil if only writes are being recorded.
	Ops []IO
}

func (r *Record) String() string {
	return "record"
}

// Tx implements onewire.Bus.
func (r *Record) Tx(w, read []byte, power onewire.Pullup) error {
	r.Lock()
	defer r.Unlock()
	if r.Bus == nil {
		if len(read) != 0 {
			return errRead("onewiretest: read unsupported when no bus is connected")
		}
	} else {
		if err := r.Bus.Tx(w, read, power); err != nil {
			return err
		}
	}
	io := IO{W: make([]byte, len(w)), Pull: power}
	if len(read) != 0 {
		io.R = make([]byte, len(read))
	}
	copy(io.W, w)
	copy(io.R, read)
	r.Ops = append(r.Ops, io)
	return nil
}

// Search implements onewire.Bus.
func (r *Record) Search(alarmOnly bool) ([]onewire.Address, error) {
	if r.Bus == nil {
		return nil, errRead("onewiretest: search unsupported when no bus is connected")
	}
	return r.Bus.Search(alarmOnly)
}

// Playback implements onewire.Bus and plays back a recorded I/O sequence.
//
// When the Devices field is populated, Playback also answers search
// transactions by simulating the collision behavior of that device
// population bit by bit, so the search algorithm runs against it
// unmodified. Alarming lists the subset of Devices that answers an alarm
// search.
//
// Set DontPanic to true to return errors instead of panicking, which is
// useful to test driver error paths.
type Playback struct {
	sync.Mutex
	Ops       []IO
	Count     int
	Devices   []onewire.Address
	Alarming  []onewire.Address
	DontPanic bool

	active []onewire.Address // devices still matching the pass so far
	bit    uint              // next address bit position to resolve
}

func (p *Playback) String() string {
	return "playback"
}

// Close verifies that all the expected Ops have been consumed.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) != p.Count {
		return p.fail(fmt.Sprintf("onewiretest: expected playback to be empty: %d of %d ops", p.Count, len(p.Ops)))
	}
	return nil
}

// Tx implements onewire.Bus.
func (p *Playback) Tx(w, r []byte, power onewire.Pullup) error {
	p.Lock()
	defer p.Unlock()
	if p.Devices != nil && len(w) == 1 && len(r) == 0 &&
		(w[0] == onewire.SearchROM || w[0] == onewire.AlarmSearch) {
		// Search command: arm the simulated devices.
		if len(p.Devices) == 0 {
			return noDevicesError("onewiretest: no presence pulse")
		}
		if w[0] == onewire.AlarmSearch {
			p.active = append([]onewire.Address(nil), p.Alarming...)
		} else {
			p.active = append([]onewire.Address(nil), p.Devices...)
		}
		p.bit = 0
		return nil
	}
	if p.Count >= len(p.Ops) {
		return p.fail(fmt.Sprintf("onewiretest: unexpected Tx: %#v", w))
	}
	op := p.Ops[p.Count]
	if !bytes.Equal(op.W, w) {
		return p.fail(fmt.Sprintf("onewiretest: unexpected write %#v != %#v", w, op.W))
	}
	if len(op.R) != len(r) {
		return p.fail(fmt.Sprintf("onewiretest: unexpected read buffer length %d != %d", len(r), len(op.R)))
	}
	if op.Pull != power {
		return p.fail(fmt.Sprintf("onewiretest: unexpected pullup %s != %s", power, op.Pull))
	}
	copy(r, op.R)
	p.Count++
	return nil
}

// Search implements onewire.Bus.
func (p *Playback) Search(alarmOnly bool) ([]onewire.Address, error) {
	return onewire.Search(p, alarmOnly)
}

// SearchTriplet implements onewire.BusSearcher by sampling the simulated
// devices that are still participating in the current pass. Devices whose
// address bit disagrees with the direction taken drop out until the next
// search command.
func (p *Playback) SearchTriplet(direction byte) (onewire.TripletResult, error) {
	p.Lock()
	defer p.Unlock()
	var tr onewire.TripletResult
	if p.Devices == nil {
		return tr, p.fail("onewiretest: SearchTriplet without Devices")
	}
	if p.bit > 63 {
		return tr, p.fail("onewiretest: more than 64 triplets in one pass")
	}
	for _, d := range p.active {
		if uint64(d)>>p.bit&1 == 0 {
			tr.GotZero = true
		} else {
			tr.GotOne = true
		}
	}
	switch {
	case tr.GotZero && tr.GotOne:
		tr.Taken = direction & 1
	case tr.GotOne:
		tr.Taken = 1
	case tr.GotZero:
		tr.Taken = 0
	default:
		tr.Taken = direction & 1
	}
	var active []onewire.Address
	for _, d := range p.active {
		if byte(uint64(d)>>p.bit&1) == tr.Taken {
			active = append(active, d)
		}
	}
	p.active = active
	p.bit++
	return tr, nil
}

func (p *Playback) fail(msg string) error {
	if p.DontPanic {
		return errRead(msg)
	}
	panic(msg)
}

// errRead is the error returned on plain playback mismatches.
type errRead string

func (e errRead) Error() string { return string(e) }

// noDevicesError implements onewire.NoDevicesError.
type noDevicesError string

func (e noDevicesError) Error() string   { return string(e) }
func (e noDevicesError) NoDevices() bool { return true }

var _ onewire.Bus = &Record{}
var _ onewire.BusSearcher = &Playback{}
var _ onewire.NoDevicesError = noDevicesError("")
