package main

import "github.com/rustnav/rustnav/cmd"

func main() {
	cmd.Execute()
}
