package main

import (
	"os"

	"github.com/illmade-knight/go-catpedia/cmd/catpedia/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
