package main

import (
	"github.com/mvirta/eqcraft/internal/cli"
)

func main() {
	cli.Execute()
}
