package main

import "recipecost/cmd"

func main() {
	cmd.Execute()
}
