package main

import "crudload/cmd"

func main() {
	cmd.Execute()
}
