package main

import "github.com/AminuIsrael/seldon-core/cmd"

func main() {
	c := cmd.NewAPITesterCmd()
	c.Use = "seldon-core-api-tester <contract> <host> <port>"
	cmd.Execute(c)
}
