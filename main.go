package main

import "github.com/frahmantamala/pisda/cmd"

func main() {
	cmd.Execute()
}
