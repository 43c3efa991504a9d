package main

import "github.com/rnwolfe/vmdeck/cmd"

func main() {
	cmd.Execute()
}
