// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import (
	"errors"
	"math/bits"
	"reflect"
	"sort"
	"testing"
)

// simBus simulates the search behavior of a population of devices: each
// triplet is answered from the devices whose address bits matched every
// direction driven since the last reset.
type simBus struct {
	devices  []uint64 // all devices on the bus
	alarming []uint64 // subset answering an alarm search
	failAt   int      // fail the n-th triplet (1-based), 0 to disable

	active []uint64
	bit    uint
	ops    int
}

func (b *simBus) String() string { return "sim" }

func (b *simBus) Search(alarmOnly bool) ([]Address, error) { return Search(b, alarmOnly) }

func (b *simBus) Tx(w, r []byte, power Pullup) error {
	if len(b.devices) == 0 {
		return simNoDevices("sim: no presence pulse")
	}
	if len(w) != 1 || len(r) != 0 {
		return errors.New("sim: unexpected transaction")
	}
	switch w[0] {
	case SearchROM:
		b.active = append([]uint64(nil), b.devices...)
	case AlarmSearch:
		b.active = append([]uint64(nil), b.alarming...)
	default:
		return errors.New("sim: unexpected command")
	}
	b.bit = 0
	return nil
}

func (b *simBus) SearchTriplet(direction byte) (TripletResult, error) {
	b.ops++
	if b.failAt > 0 && b.ops >= b.failAt {
		return TripletResult{}, errors.New("sim: bus glitch")
	}
	var tr TripletResult
	for _, d := range b.active {
		if d>>b.bit&1 == 0 {
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
	default:
		// All zeroes, or nobody home: the bus reads back whatever the
		// master drives.
		if !tr.GotZero {
			tr.Taken = direction & 1
		}
	}
	var active []uint64
	for _, d := range b.active {
		if byte(d>>b.bit&1) == tr.Taken {
			active = append(active, d)
		}
	}
	b.active = active
	b.bit++
	return tr, nil
}

type simNoDevices string

func (e simNoDevices) Error() string   { return string(e) }
func (e simNoDevices) NoDevices() bool { return true }

// busOrder sorts addresses the way the search discovers them: by their bits
// in wire order, least significant first.
func busOrder(addrs []Address) []Address {
	out := append([]Address(nil), addrs...)
	sort.Slice(out, func(i, j int) bool {
		return bits.Reverse64(uint64(out[i])) < bits.Reverse64(uint64(out[j]))
	})
	return out
}

func TestSearchStateBits(t *testing.T) {
	var s searchState
	s.setAddrBit(0, true)
	s.setAddrBit(63, true)
	if s.addr != 1<<63|1 {
		t.Fatalf("addr = %#x", s.addr)
	}
	if !s.addrBit(0) || !s.addrBit(63) || s.addrBit(32) {
		t.Fatal("addrBit")
	}
	s.setAddrBit(63, false)
	if s.addr != 1 {
		t.Fatalf("addr = %#x after clearing bit 63", s.addr)
	}
	if s.lastDiscrepancy() != 0 {
		t.Fatal("lastDiscrepancy of empty bitmap must be 0")
	}
	s.setDiscrepancy(3)
	s.setDiscrepancy(41)
	if got := s.lastDiscrepancy(); got != 41 {
		t.Fatalf("lastDiscrepancy = %d, want 41", got)
	}
	s.clearDiscrepancy(41)
	if got := s.lastDiscrepancy(); got != 3 {
		t.Fatalf("lastDiscrepancy = %d, want 3", got)
	}
}

// TestSearchPassTwoDevices walks two devices that differ only in bit 1
// through three passes and checks the discrepancy bookkeeping at each step.
func TestSearchPassTwoDevices(t *testing.T) {
	bus := &simBus{devices: []uint64{0x01, 0x03}}

	// First pass: the 0-branch is taken at the discrepancy, finding 0x01.
	state, ok, err := searchPass(bus, SearchROM, progress{})
	if err != nil || !ok {
		t.Fatalf("pass 1: ok=%v err=%v", ok, err)
	}
	if state.addr != 0x01 {
		t.Errorf("pass 1: addr = %#x, want 0x01", state.addr)
	}
	if state.discrepancies != 1<<1 {
		t.Errorf("pass 1: discrepancies = %#x, want bit 1 set", state.discrepancies)
	}

	// Second pass: bit 1 is forced to the unexplored 1-branch, finding 0x03
	// and clearing the bitmap.
	state, ok, err = searchPass(bus, SearchROM, progress{started: true, state: state})
	if err != nil || !ok {
		t.Fatalf("pass 2: ok=%v err=%v", ok, err)
	}
	if state.addr != 0x03 {
		t.Errorf("pass 2: addr = %#x, want 0x03", state.addr)
	}
	if state.discrepancies != 0 {
		t.Errorf("pass 2: discrepancies = %#x, want 0", state.discrepancies)
	}

	// Third pass: nothing left to explore, exhausted before touching the bus.
	ops := bus.ops
	if _, ok, err = searchPass(bus, SearchROM, progress{started: true, state: state}); ok || err != nil {
		t.Fatalf("pass 3: ok=%v err=%v, want clean exhaustion", ok, err)
	}
	if bus.ops != ops {
		t.Error("pass 3 touched the bus")
	}
}

// Running the same pass twice from identical state against identical bus
// responses must produce identical output.
func TestSearchPassIdempotent(t *testing.T) {
	devices := []uint64{0x01, 0x03}
	s1, ok1, err1 := searchPass(&simBus{devices: devices}, SearchROM, progress{})
	s2, ok2, err2 := searchPass(&simBus{devices: devices}, SearchROM, progress{})
	if s1 != s2 || ok1 != ok2 || err1 != err2 {
		t.Fatalf("passes diverged: (%+v %v %v) vs (%+v %v %v)", s1, ok1, err1, s2, ok2, err2)
	}
}

func TestSearcherFullBus(t *testing.T) {
	addrs := []Address{
		MakeAddress(0x28, 0x0000070e41ac),
		MakeAddress(0x28, 0x00000a31c955),
		MakeAddress(0x10, 0x000000421dfe),
		MakeAddress(0x3a, 0x0000deadbeef),
	}
	bus := &simBus{}
	for _, a := range addrs {
		bus.devices = append(bus.devices, uint64(a))
	}
	got, err := Search(bus, false)
	if err != nil {
		t.Fatal(err)
	}
	if want := busOrder(addrs); !reflect.DeepEqual(got, want) {
		t.Fatalf("Search = %v, want %v", got, want)
	}
}

func TestSearcherAlarmOnly(t *testing.T) {
	all := []Address{
		MakeAddress(0x28, 1),
		MakeAddress(0x28, 2),
		MakeAddress(0x28, 3),
	}
	bus := &simBus{}
	for _, a := range all {
		bus.devices = append(bus.devices, uint64(a))
	}
	bus.alarming = []uint64{uint64(all[1])}
	got, err := Search(bus, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []Address{all[1]}) {
		t.Fatalf("alarm Search = %v, want only %s", got, all[1])
	}
}

// A bus with devices present but none in alarm state answers the presence
// pulse and then goes quiet at the first triplet; that is a clean end, not
// an error.
func TestSearcherNoAlarmingDevices(t *testing.T) {
	bus := &simBus{devices: []uint64{uint64(MakeAddress(0x28, 1))}}
	got, err := Search(bus, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("alarm Search = %v, want none", got)
	}
}

func TestSearcherEmptyBus(t *testing.T) {
	s := NewSearcher(&simBus{}, false)
	if s.Next() {
		t.Fatal("Next must return false on an empty bus")
	}
	if s.Err() != nil {
		t.Fatalf("an empty bus is not an error, got %v", s.Err())
	}
}

func TestSearcherSingleDevice(t *testing.T) {
	addr := MakeAddress(0x28, 0x0000070e41ac)
	s := NewSearcher(&simBus{devices: []uint64{uint64(addr)}}, false)
	if !s.Next() {
		t.Fatalf("first pass found nothing: %v", s.Err())
	}
	if s.Address() != addr {
		t.Fatalf("Address() = %s, want %s", s.Address(), addr)
	}
	if s.Next() {
		t.Fatal("second pass must terminate cleanly")
	}
	if s.Err() != nil {
		t.Fatal(s.Err())
	}
}

func TestSearcherChecksumError(t *testing.T) {
	// 0x01 is not a valid ROM: its checksum byte is zero instead of the CRC
	// of the first seven bytes.
	s := NewSearcher(&simBus{devices: []uint64{0x01}}, false)
	if s.Next() {
		t.Fatal("corrupted address must not be produced")
	}
	if !IsChecksumError(s.Err()) {
		t.Fatalf("got %v, want a ChecksumError", s.Err())
	}
	// Exhaustion after an error is sticky.
	if s.Next() {
		t.Fatal("Searcher must stay exhausted after an error")
	}
}

func TestSearcherBusError(t *testing.T) {
	addrs := []Address{MakeAddress(0x28, 1), MakeAddress(0x28, 2)}
	bus := &simBus{devices: []uint64{uint64(addrs[0]), uint64(addrs[1])}, failAt: 70}
	got, err := Search(bus, false)
	if err == nil {
		t.Fatal("expected the injected bus error")
	}
	// The first pass (64 triplets) completed, the second one hit the fault;
	// the devices found so far are returned alongside the error.
	if want := busOrder(addrs)[:1]; !reflect.DeepEqual(got, want) {
		t.Fatalf("partial result = %v, want %v", got, want)
	}
}
