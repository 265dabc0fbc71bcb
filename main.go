// Package main is the entry point for the gorepair CLI.
package main

import "gorepair.dev/pkg/gorepair/cmd"

func main() {
	cmd.Execute()
}
