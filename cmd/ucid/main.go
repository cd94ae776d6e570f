package main

import (
	"os"

	"ucid/internal/cli"
)

func main() { os.Exit(cli.Main()) }
