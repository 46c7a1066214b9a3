package main

import (
	"os"

	"github.com/dmitrijs2005/moodlebridge/internal/admin"
)

func main() {
	os.Exit(admin.Execute())
}
