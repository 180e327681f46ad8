package main

import "github.com/supernan/redub/internal/cli"

func main() {
	cli.Main()
}
