package main

import (
	"os"

	"github.com/nimbusforge/s3logforwarder/cmd"
)

func main() {
	if err := cmd.Command().Execute(); err != nil {
		os.Exit(1)
	}
}
