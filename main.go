package main

import (
	"os"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
