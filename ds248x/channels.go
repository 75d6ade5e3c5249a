// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds248x

import (
	"bytes"
	"fmt"
)

// ChannelSelect selects one of the eight 1-wire channels of a DS2482-800.
// On other chips it does nothing. The channel is silently clamped to the
// 0..7 range. It is expected that the application keeps track of which
// 1-wire device is connected to which channel.
//
// A communication error is returned if present.
func (d *Dev) ChannelSelect(ch int) (err error) {
	switch d.isDS248x {
	case isDS2482x800:
		if ch < 0 {
			ch = 0
		}
		if ch > 7 {
			ch = 7
		}
		csc := []byte{cscIO0w, cscIO1w, cscIO2w, cscIO3w, cscIO4w, cscIO5w, cscIO6w, cscIO7w}
		buf := []byte{cmdChannelSelect, csc[ch]}
		if err = d.i2c.Tx(buf, nil); err != nil {
			return fmt.Errorf("ds2482-800: error while selecting channel: %s", err)
		}
	default:
	}
	return
}

// SelectedChannel reads which 1-wire channel is selected on a DS2482-800.
// On other chips it always returns 0.
//
// On error it returns 255.
func (d *Dev) SelectedChannel() (ch int) {
	switch d.isDS248x {
	case isDS2482x800:
		var sch [1]byte
		if err := d.i2c.Tx([]byte{cmdSetReadPtr, regCSR}, sch[:]); err != nil {
			return 255
		}
		csc := []byte{cscIO0r, cscIO1r, cscIO2r, cscIO3r, cscIO4r, cscIO5r, cscIO6r, cscIO7r}
		ch = bytes.IndexByte(csc, sch[0])
		if ch < 0 || ch > 7 {
			ch = 255
		}
	default:
	}
	return
}
