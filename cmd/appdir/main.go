package main

import (
	"log"

	"github.com/MrSnakeDoc/appdir/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ appdir failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ appdir failed: %v", err)
	}
}
