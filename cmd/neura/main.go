package main

import (
	"os"

	"github.com/dshills/neura/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
