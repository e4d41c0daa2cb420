package main

import "github.com/openresponses/fileprep/cmd"

func main() {
	cmd.Execute()
}
