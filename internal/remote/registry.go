package remote

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// Factory creates a remote driver from configuration
type Factory interface {
	CreateDriver(config map[string]any) (Driver, error)
	ValidateConfig(config map[string]any) error
}

// Registry manages driver factories
type Registry struct {
	drivers map[string]Factory
	mu      sync.RWMutex
}

// NewRegistry creates a new driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
	}
}

// Register adds a driver factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDriverExists, name)
	}

	r.drivers[name] = factory
	return nil
}

// MustRegister is like Register but panics on error. It is meant for init
// functions.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) factory(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.drivers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return factory, nil
}

// Create creates a driver using the named factory
func (r *Registry) Create(driverName string, config map[string]any) (Driver, error) {
	factory, err := r.factory(driverName)
	if err != nil {
		return nil, err
	}

	return factory.CreateDriver(config)
}

// ValidateConfig validates configuration for the specified driver
func (r *Registry) ValidateConfig(driverName string, config map[string]any) error {
	factory, err := r.factory(driverName)
	if err != nil {
		return err
	}

	return factory.ValidateConfig(config)
}

// ListDrivers returns the sorted names of all registered drivers
func (r *Registry) ListDrivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a driver factory to the default registry
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// MustRegister adds a driver factory to the default registry or panics
func MustRegister(name string, factory Factory) {
	defaultRegistry.MustRegister(name, factory)
}

// Create creates a driver using the default registry
func Create(driverName string, config map[string]any) (Driver, error) {
	return defaultRegistry.Create(driverName, config)
}

// ValidateConfig validates configuration using the default registry
func ValidateConfig(driverName string, config map[string]any) error {
	return defaultRegistry.ValidateConfig(driverName, config)
}

// ListDrivers returns the names of all drivers in the default registry
func ListDrivers() []string {
	return defaultRegistry.ListDrivers()
}

// decodeConfig decodes a driver option map into out. Unknown keys are
// rejected so that typos in the config file are reported.
func decodeConfig(config map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
