package main

import "github.com/pfrederiksen/lunch-menu-sync/internal/cli"

func main() {
	cli.Execute()
}
