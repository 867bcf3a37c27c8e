package main

import "github.com/yigit/electives/internal/cli"

func main() {
	cli.Execute()
}
