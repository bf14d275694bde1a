package main

import "github.com/encodeous/lsdb/cmd"

func main() {
	cmd.Execute()
}
