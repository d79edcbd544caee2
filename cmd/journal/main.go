package main

import "github.com/threewords/journal/cmd/journal/cmd"

func main() {
	cmd.Execute()
}
