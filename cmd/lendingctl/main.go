// Command lendingctl operates a commitment ledger kept in a SQLite file.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
