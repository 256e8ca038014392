package main

import "ytshots/cmd"

func main() {
	cmd.Execute()
}
