package main

import (
	"fmt"
	"os"

	"reviewgate/cmd"
)

func main() {
	err := cmd.Execute(os.Args[1:])
	if err != nil && !cmd.Silent(err) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(cmd.ExitCode(err))
}
