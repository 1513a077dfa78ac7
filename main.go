package main

import "github.com/atelierlab/archharvest/cmd"

func main() {
	cmd.Execute()
}
