package main

import "github.com/fortuna/ncaa-boxscores/internal/cli"

func main() {
	cli.Execute()
}
