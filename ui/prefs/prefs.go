// Package prefs provides JSON-based host preferences: the last committed
// viewport and the last directory used for uploads.
package prefs

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"image-workspace/internal/viewport"
)

const prefsFile = "preferences.json"

const (
	keyViewportX    = "viewport.x"
	keyViewportY    = "viewport.y"
	keyViewportZoom = "viewport.zoom"
	keyLastDir      = "lastDirectory"
	keyTool         = "tool"
)

// Prefs stores preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
	dirty  bool
}

// Load reads preferences from <user config dir>/image-workspace/preferences.json.
// Returns empty Prefs if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "image-workspace", prefsFile))
}

// LoadFrom reads preferences from path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(data, &p.values); err != nil {
		log.Printf("Prefs: ignoring unreadable %s: %v", path, err)
		p.values = make(map[string]interface{})
	}
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.dirty = false
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// SaveIfChanged writes preferences only when something was set since the
// last save.
func (p *Prefs) SaveIfChanged() error {
	p.mu.RLock()
	dirty := p.dirty
	p.mu.RUnlock()
	if !dirty {
		return nil
	}
	return p.Save()
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.values[key].(string); ok {
		return s
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	if p.values[key] != val {
		p.values[key] = val
		p.dirty = true
	}
	p.mu.Unlock()
}

// Viewport returns the stored viewport, or ok=false if none was saved.
func (p *Prefs) Viewport() (v viewport.State, ok bool) {
	zoom := p.FloatWithFallback(keyViewportZoom, 0)
	if zoom <= 0 {
		return viewport.State{}, false
	}
	return viewport.State{
		X:    p.FloatWithFallback(keyViewportX, 0),
		Y:    p.FloatWithFallback(keyViewportY, 0),
		Zoom: zoom,
	}, true
}

// SetViewport stores the last committed viewport.
func (p *Prefs) SetViewport(v viewport.State) {
	p.SetFloat(keyViewportX, v.X)
	p.SetFloat(keyViewportY, v.Y)
	p.SetFloat(keyViewportZoom, v.Zoom)
}

// LastDir returns the last directory an image was uploaded from.
func (p *Prefs) LastDir() string {
	return p.String(keyLastDir)
}

// SetLastDir stores the directory of filePath.
func (p *Prefs) SetLastDir(filePath string) {
	p.SetString(keyLastDir, filepath.Dir(filePath))
}

// Tool returns the name of the last active tool.
func (p *Prefs) Tool() string {
	return p.String(keyTool)
}

// SetTool stores the name of the active tool.
func (p *Prefs) SetTool(name string) {
	p.SetString(keyTool, name)
}
