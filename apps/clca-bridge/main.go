package main

import (
	"github.com/nuforge/ttg-clca-bridge/internal/cli"
)

func main() {
	cli.Execute()
}
