// Package main writes the cnstrc command reference as markdown.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/constructorio-go/cmd/cnstrc/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "directory to write markdown into")
	flag.Parse()

	if err := os.MkdirAll(*output, 0o750); err != nil {
		log.Fatalf("creating %s: %v", *output, err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, *output); err != nil {
		log.Fatalf("generating command reference: %v", err)
	}

	fmt.Printf("wrote cnstrc reference to %s/\n", *output)
}
