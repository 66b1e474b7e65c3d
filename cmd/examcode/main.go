package main

import "github.com/jmcleod/examcode/cmd/examcode/cmd"

func main() {
	cmd.Execute()
}
