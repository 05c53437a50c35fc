// ABOUTME: Entry point for the audioenv command
// ABOUTME: Lists output devices and plays files or test tones through an engine
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
