package main

import "condaprobe/internal/cli"

func main() {
	cli.Execute()
}
