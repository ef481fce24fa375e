// Package main provides the entry point for the Image Workspace application.
package main

import (
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"image-workspace/internal/aiedit"
	"image-workspace/internal/app"
	"image-workspace/internal/config"
	"image-workspace/internal/image"
	"image-workspace/internal/version"
	"image-workspace/ui/mainwindow"
	"image-workspace/ui/prefs"
)

const appID = "io.github.image-workspace"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String())

	cfg := loadConfig()

	ai := loadService(cfg)

	a := fyneapp.NewWithID(appID)
	state := app.NewState()
	win := mainwindow.New(a, state, prefs.Load(), cfg, ai)

	// Images given on the command line are placed on the canvas at startup.
	for _, path := range os.Args[1:] {
		if !image.IsSupportedFormat(path) {
			log.Printf("Skipping %s: unsupported format", path)
			continue
		}
		if err := win.AddImageFile(path); err != nil {
			log.Printf("Failed to load %s: %v", path, err)
		}
	}

	win.ShowAndRun()
}

func loadConfig() *config.Config {
	loader, err := config.NewLoader()
	if err != nil {
		log.Printf("Config: %v; using defaults", err)
		return config.DefaultConfig()
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Printf("Config: %v; using defaults", err)
		return config.DefaultConfig()
	}
	log.Printf("Config: loaded %s", loader.ConfigPath())
	return cfg
}

func loadService(cfg *config.Config) aiedit.Service {
	registry := aiedit.NewRegistry()
	gemini := aiedit.NewGeminiService(cfg.AI.APIKey, cfg.AI.Model)
	if err := registry.Register(gemini); err != nil {
		log.Printf("AI: %v", err)
	}

	ai, err := registry.Get(cfg.AI.Service)
	if err != nil {
		log.Printf("AI: %v; falling back to %s (available: %v)", err, gemini.Name(), registry.List())
		ai = gemini
	}
	if err := ai.Validate(); err != nil {
		log.Printf("AI: %v; edits will fail until it is configured", err)
	}
	return ai
}
