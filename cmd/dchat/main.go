package main

import (
	"os"

	"github.com/bnema/dindex-chat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
