package main

import "strand/loom/cmd"

func main() {
	cmd.Execute()
}
