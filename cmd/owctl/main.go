// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// owctl enumerates and reads 1-wire devices behind a ds248x I²C bridge.
package main

import "github.com/GermanBionicSystems/onewire/cmd/owctl/cmd"

func main() {
	cmd.Execute()
}
