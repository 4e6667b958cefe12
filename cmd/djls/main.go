// Command djls is a language server and linter for Django HTML templates.
package main

import (
	"fmt"
	"os"

	"github.com/djls/djls/cmd/djls/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
