package main

import "github.com/edgarcoime/cthulhu-cli/cmd"

func main() {
	cmd.Execute()
}
