package main

import (
	"fmt"
	"os"

	"github.com/formworks/licensing/internal/pkg/catalog"
)

// catalogctl validates a catalog document before it is rolled out. The
// same checks run again on every load and swap; this tool exists so a
// broken document is caught at review time, not at deploy time.
func main() {
	if len(os.Args) < 3 || os.Args[1] != "validate" {
		fmt.Println("Usage: catalogctl validate <catalog.json>")
		os.Exit(1)
	}

	path := os.Args[2]
	snap, err := catalog.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid catalog: %v\n", err)
		os.Exit(1)
	}

	plans, features, rows := snap.Counts()
	fmt.Printf("%s: valid (%d plans, %d features, %d entitlement rows)\n", path, plans, features, rows)
}
