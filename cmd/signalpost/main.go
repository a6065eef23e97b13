package main

import "signalpost/internal/cli"

func main() {
	cli.Execute()
}
