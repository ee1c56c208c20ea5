// Package main provides the CLI entry point for the Hackernews clone API.
package main

import (
	"os"

	"github.com/emilythestrangee/hackernews-clone/backend/cmd/hackernews/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
