package main

import "github.com/KaramelBytes/tabviz/cmd"

func main() {
	cmd.Execute()
}
