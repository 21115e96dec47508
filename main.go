// The main package for the pttgrab executable.
package main

import (
	"github.com/pttlab/pttgrab/cmd"
)

func main() {
	cmd.Execute()
}
