package main

import (
	"os"

	"github.com/churchadmin/churchadmin/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
