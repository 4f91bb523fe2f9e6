package main

import (
	"github.com/priyxstudio/burrow/cmd"
)

func main() {
	cmd.Execute()
}
