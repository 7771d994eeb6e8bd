package main

import "github.com/AminuIsrael/seldon-core/cmd"

func main() {
	c := cmd.NewMicroserviceCmd()
	c.Use = "seldon-core-microservice <interface_name> <api_type>"
	cmd.Execute(c)
}
