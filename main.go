package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
