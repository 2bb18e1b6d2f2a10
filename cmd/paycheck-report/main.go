// Command paycheck-report computes the paycheck dashboard from statement CSV
// files without running the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
