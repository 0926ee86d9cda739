// Package main is the entry point for the cnstrc CLI.
package main

import (
	"github.com/donaldgifford/constructorio-go/cmd/cnstrc/cmd"
)

func main() {
	cmd.Execute()
}
