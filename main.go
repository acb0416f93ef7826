package main

import (
	"os"

	"github.com/robalobadob/wordslide/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
