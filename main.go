package main

import "github.com/cellscribe/cellscribe/cmd"

func main() {
	cmd.Execute()
}
