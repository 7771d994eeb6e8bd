package main

import "github.com/AminuIsrael/seldon-core/cmd"

func main() {
	c := cmd.NewTesterCmd()
	c.Use = "seldon-core-tester <contract> <host> <port>"
	cmd.Execute(c)
}
