package main

import "github.com/powkey/powkey/cmd/powkey/commands"

func main() {
	commands.Execute()
}
