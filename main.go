package main

import "github.com/MyCarrier-DevOps/go-gitversioning/cmd"

func main() {
	cmd.Execute()
}
