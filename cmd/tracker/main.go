// Command tracker runs the exercise tracker HTTP (and optional gRPC) service.
package main

import (
	"log"

	"github.com/patric-chuzhbe/exercisetracker/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if err := application.Run(); err != nil {
		_ = application.Close()
		log.Fatalf("app run failed: %v", err)
	}

	if err := application.Close(); err != nil {
		log.Printf("failed to close app: %v", err)
	}
}
