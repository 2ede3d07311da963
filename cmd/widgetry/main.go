// Command widgetry validates page manifests and reads or fills their views
// in a live browser.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/widgetry/cmd/widgetry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
