package main

import "github.com/jackchuka/gitfx/cmd"

func main() {
	cmd.Execute()
}
