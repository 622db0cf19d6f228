package main

import (
	"os"

	"github.com/byo/bswieckidev-blog/cmd/blogctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
