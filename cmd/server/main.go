package main

import (
	"github.com/minhngoc274/chatcore/cmd"
)

func main() {
	cmd.Execute()
}
