package main

import "github.com/KaramelBytes/areamail-cli/cmd"

func main() {
	cmd.Execute()
}
