package main

import "github.com/roomrelay/relay/cmd/relay/cmd"

func main() {
	cmd.Execute()
}
