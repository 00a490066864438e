package main

import "github.com/porousflow/gores/cmd"

func main() {
	cmd.Execute()
}
