package main

import "github.com/alde/trombinoscope/cmd"

func main() {
	cmd.Execute()
}
