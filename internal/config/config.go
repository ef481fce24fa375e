// Package config manages application configuration.
package config

import (
	"fmt"

	"image-workspace/internal/aiedit"
	"image-workspace/internal/interaction"
	"image-workspace/internal/mask"
)

// Config represents the application configuration.
type Config struct {
	Canvas CanvasConfig `yaml:"canvas"`
	AI     AIConfig     `yaml:"ai"`
}

// CanvasConfig holds interaction and layout tuning.
type CanvasConfig struct {
	WheelSensitivity float64 `yaml:"wheel_sensitivity"`
	BrushWidth       float64 `yaml:"brush_width"`
	DefaultImageSize float64 `yaml:"default_image_size"`
	DerivedGap       float64 `yaml:"derived_gap"`
}

// AIConfig configures the edit service.
type AIConfig struct {
	Service       string         `yaml:"service"`
	APIKey        string         `yaml:"api_key"`
	Model         string         `yaml:"model"`
	AspectRatio   string         `yaml:"aspect_ratio,omitempty"`
	UpscaleModels []UpscaleModel `yaml:"upscale_models"`
}

// UpscaleModel is one entry of the upscale model picker.
type UpscaleModel struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			WheelSensitivity: interaction.DefaultWheelSensitivity,
			BrushWidth:       mask.DefaultBrushWidth,
			DefaultImageSize: 512,
			DerivedGap:       aiedit.DefaultGap,
		},
		AI: AIConfig{
			Service: "gemini",
			APIKey:  "${GEMINI_API_KEY}",
			Model:   aiedit.DefaultGeminiModel,
			UpscaleModels: []UpscaleModel{
				{ID: aiedit.DefaultGeminiModel, Name: "Gemini 2.5 Flash Image"},
				{ID: "gemini-3-pro-image-preview", Name: "Gemini 3 Pro Image"},
			},
		},
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Canvas.WheelSensitivity <= 0 {
		c.Canvas.WheelSensitivity = d.Canvas.WheelSensitivity
	}
	if c.Canvas.BrushWidth <= 0 {
		c.Canvas.BrushWidth = d.Canvas.BrushWidth
	}
	if c.Canvas.DefaultImageSize <= 0 {
		c.Canvas.DefaultImageSize = d.Canvas.DefaultImageSize
	}
	if c.Canvas.DerivedGap <= 0 {
		c.Canvas.DerivedGap = d.Canvas.DerivedGap
	}
	if c.AI.Service == "" {
		c.AI.Service = d.AI.Service
	}
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if len(c.AI.UpscaleModels) == 0 {
		c.AI.UpscaleModels = d.AI.UpscaleModels
	}
}

// Validate checks the configuration for values the workspace cannot use.
func (c *Config) Validate() error {
	if c.Canvas.DefaultImageSize > 5000 {
		return fmt.Errorf("default_image_size %v exceeds the canvas", c.Canvas.DefaultImageSize)
	}
	seen := make(map[string]bool)
	for _, m := range c.AI.UpscaleModels {
		if m.ID == "" {
			return fmt.Errorf("upscale model without id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate upscale model: %s", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// UpscaleModel returns the upscale model with the given id.
func (c *Config) UpscaleModel(id string) (*UpscaleModel, bool) {
	for i := range c.AI.UpscaleModels {
		if c.AI.UpscaleModels[i].ID == id {
			return &c.AI.UpscaleModels[i], true
		}
	}
	return nil, false
}
