package main

import "github.com/evanofslack/nmcli-sync/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
