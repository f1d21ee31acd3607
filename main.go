package main

import "pohchain/cmd"

func main() {
	cmd.Execute()
}
