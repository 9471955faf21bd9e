package main

import "github.com/adcraft-ai/adcraft/cli/internal/cli"

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Execute(version, commit, date)
}
