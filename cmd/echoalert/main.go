package main

import (
	"os"

	"github.com/saicharan2011-ops/EchoAlert/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
