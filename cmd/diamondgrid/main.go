package main

import "github.com/MeKo-Tech/diamondgrid/internal/cmd"

func main() {
	cmd.Execute()
}
