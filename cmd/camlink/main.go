package main

import "github.com/camlink/camlink/cmd/camlink/commands"

func main() {
	commands.Execute()
}
