// The main package for the policydiff executable.
package main

import (
	"github.com/Varshith-Kola/PolicyDiff/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
