package main

import "github.com/itsmostafa/irisdash/cmd"

func main() {
	cmd.Execute()
}
