package main

import (
	"github.com/johnharris85/fab-content-filter/internal/cli"
)

func main() {
	cli.Execute()
}
