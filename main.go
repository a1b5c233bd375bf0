package main

import "github.com/gurubase/gurubase-cli/cmd"

func main() {
	cmd.Execute()
}
