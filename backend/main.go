package main

import (
	"fmt"
	"os"
	"pollhub/backend/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pollhub:", err)
		os.Exit(1)
	}
}
