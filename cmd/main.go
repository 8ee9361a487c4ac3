// cmd/main.go
package main

import cmd "github.com/accelsw/felobs/cmd/felobs"

// main starts the felobs CLI application by delegating to the
// cobra root command defined in the felobs package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
