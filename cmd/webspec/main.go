package main

import (
	"os"

	"github.com/shift/web-spec/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
