package main

import "lookyswappy/cmd/client/cmd"

func main() {
	cmd.Execute()
}
