package main

import "silver-sentinel/internal/cli"

func main() {
	cli.Execute()
}
