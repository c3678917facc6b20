package main

import "github.com/degreescope/degreescope/cmd"

func main() {
	cmd.Execute()
}
