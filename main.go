package main

import "aniscan/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
