package main

import (
	"fmt"
	"os"

	"github.com/ruka-lang/ruka/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
