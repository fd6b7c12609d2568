package main

import "github.com/Elipzer/clavender/pkg/cli"

func main() {
	cli.Run()
}
