// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// espbus - Escort Serial Protocol bus tool
//
// A CLI tool for monitoring, querying and simulating devices on an ESP bus.

package main

import (
	"os"

	"github.com/Thermoquad/espbus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
