package main

import "github.com/maroda/madrigal/cli"

func main() {
	cli.Execute()
}
