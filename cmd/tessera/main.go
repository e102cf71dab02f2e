// Command tessera runs query plans against DynamoDB tables.
package main

import (
	"fmt"
	"os"

	"github.com/jacentio/tessera/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
