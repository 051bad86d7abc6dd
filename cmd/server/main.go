package main

import (
	"lookyswappy/cmd/server/cmd"
)

func main() {
	cmd.Execute()
}
