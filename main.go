package main

import "github.com/admariner/datafuse/cmd"

func main() {
	cmd.Execute()
}
