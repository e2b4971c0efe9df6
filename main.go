package main

import "github.com/naka-gawa/repo-details/cmd"

func main() {
	cmd.Execute()
}
