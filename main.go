package main

import (
	"github.com/axellelanca/linkshorter/cmd"
	_ "github.com/axellelanca/linkshorter/cmd/cli"
	_ "github.com/axellelanca/linkshorter/cmd/server"
)

func main() {
	cmd.Execute()
}
