// Package main is the production entry point for the soundstage desk.
//
// Soundstage plays sound bank cues through a pooled playback manager:
// - A driver goroutine owns the manager and ticks it at a fixed rate
// - The desk UI talks to it through queued commands and bus events
// - Sound banks reload from disk while the desk is running
//
// Build:
//
//	go build -o build/soundstage ./cmd
//
// Run:
//
//	./build/soundstage -config soundstage.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tejashwikalptaru/soundstage/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	bankPath := flag.String("bank", "", "path to a sound bank file (overrides config)")
	device := flag.String("device", "", "output device: ebiten or mock (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	config := app.DefaultConfig()
	if *configPath != "" {
		loaded, err := app.LoadConfig(*configPath, config)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		config = loaded
	}
	if *bankPath != "" {
		config.BankPath = *bankPath
	}
	if *device != "" {
		config.Device = *device
	}

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}
