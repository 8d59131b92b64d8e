package main

import "github.com/emrgen/ingest/cmd"

func main() {
	cmd.Execute()
}
