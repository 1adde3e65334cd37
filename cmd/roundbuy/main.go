package main

import "roundbuy/cmd/roundbuy/cmd"

func main() {
	cmd.Execute()
}
