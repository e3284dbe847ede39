// Command browserenv installs and runs BrowserMob Proxy and a Selenium
// server for local end-to-end testing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
