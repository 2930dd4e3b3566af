package main

import "github.com/prodpal/prodpal/cmd"

func main() {
	cmd.Execute()
}
