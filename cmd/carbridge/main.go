package main

import "carbridge/internal/cli"

func main() {
	cli.Execute()
}
