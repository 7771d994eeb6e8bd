package main

import "github.com/AminuIsrael/seldon-core/cmd"

func main() {
	cmd.Execute(cmd.NewRootCmd())
}
