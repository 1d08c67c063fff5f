package main

import (
	"os"

	"github.com/bullbear/contracts/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
