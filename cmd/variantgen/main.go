// Command variantgen generates and synchronizes combo variants.
package main

import (
	"os"

	"github.com/phrazzld/spellbook-variants/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
