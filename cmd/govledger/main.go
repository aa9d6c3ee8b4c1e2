package main

import (
	"github.com/quorumworks/govledger/cmd/govledger/commands"
)

func main() {
	commands.Execute()
}
