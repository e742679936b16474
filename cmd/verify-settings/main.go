// Package main provides the verify-settings CLI.
//
// verify-settings signs in to the address-book application, opens the
// Database Settings modal, checks the configuration and migration tabs and
// saves a screenshot as evidence. It prints "Test passed!" or
// "Test failed: <detail>" and exits non-zero on failure.
//
// Usage:
//
//	verify-settings
//	verify-settings --base-url http://staging:5173/address-book/ --report-dir out
//	verify-settings init -o verify-settings.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
