package main

import "github.com/agentic-research/mdtf/cmd"

func main() {
	cmd.Execute()
}
