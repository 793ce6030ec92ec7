package main

import "github.com/dgallion1/articlepipe/cmd/articlectl/cmd"

func main() {
	cmd.Execute()
}
