package main

import (
	"os"

	"pdfphrase/app"
)

func main() {
	os.Exit(app.Run())
}
