package main

import "github.com/KaramelBytes/airloom-cli/cmd"

func main() {
	cmd.Execute()
}
