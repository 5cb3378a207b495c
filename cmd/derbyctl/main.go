package main

import "github.com/jeremysavoy/derby-director/cmd/derbyctl/cmd"

func main() {
	cmd.Execute()
}
