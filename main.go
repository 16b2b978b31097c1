package main

import (
	"StationFM/cmd"
)

func main() {
	cmd.Execute()
}
