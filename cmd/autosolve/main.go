package main

import "github.com/animus-coder/autosolve/internal/cli"

func main() {
	cli.Execute()
}
