// avatarctl composes modular avatar parts into one glTF/GLB avatar.
package main

import (
	"os"

	"github.com/spf13/afero"
)

func main() {
	root := newRootCommand(os.Stdout, os.Stderr, afero.NewOsFs())
	os.Exit(root.Execute())
}
