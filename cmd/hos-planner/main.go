// Command hos-planner is the operator-facing CLI around the trip planning
// pipeline: plan a trip and render its reports, validate a request without
// persisting anything, or run schema migrations against the configured
// database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
