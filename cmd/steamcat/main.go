// Package main provides the steamcat CLI application.
// It browses, downloads and publishes the game archive catalog.
package main

import (
	"log"
	"os"

	"github.com/clean-dependency-project/steamcat/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
