package main

import "github.com/floatplanner/apscrape/cmd"

func main() {
	cmd.Execute()
}
