package main

import (
	"os"

	"sheetshow/app"
)

func main() {
	os.Exit(app.Run())
}
