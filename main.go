package main

import "ragcompare/cmd"

func main() {
	cmd.Execute()
}
