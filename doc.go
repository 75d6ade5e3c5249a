// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewire defines a Dallas Semiconductor / Maxim Integrated 1-wire
// bus.
//
// A 1-wire bus is a shared single conductor on which every device owns a
// factory-lasered 64-bit ROM address. Bus masters implement Bus; masters
// that expose the single-bit search triplet additionally implement
// BusSearcher, which is enough for this package to enumerate every address
// present on the bus, one search pass per device, resolving bit collisions
// with the binary discrepancy walk described in Maxim application note 187.
//
// Device drivers address an individual device through Dev, which takes care
// of the match ROM sequencing.
//
// As the name implies, the protocol needs a single wire (and ground) between
// the master and the devices; devices may even steal power from the wire
// using a strong pull-up, see Pullup.
package onewire
