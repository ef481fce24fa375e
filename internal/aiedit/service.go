package aiedit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"image-workspace/internal/image"
)

// Service is an AI image edit/generate backend.
type Service interface {
	// Name returns the service identifier (e.g., "gemini").
	Name() string

	// Generate runs one edit request.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Upscale returns a higher resolution version of src using the given model.
	Upscale(ctx context.Context, src image.ImageData, modelID string) (*Response, error)

	// Validate checks if the service is properly configured.
	Validate() error
}

// Registry holds the available services by name.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register adds a service to the registry.
func (r *Registry) Register(s Service) error {
	if s == nil {
		return fmt.Errorf("cannot register nil service")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service already registered: %s", name)
	}
	r.services[name] = s
	return nil
}

// Get returns a service by name.
func (r *Registry) Get(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("unknown AI service: %s", name)
	}
	return s, nil
}

// List returns all registered service names (sorted).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
