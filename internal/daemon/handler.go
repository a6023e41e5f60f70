package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/larsks/doorbell/internal/cli"
)

// Handler implements cli.CommandHandler for doorbell-relay
type Handler struct{}

// NewHandler creates a new doorbell-relay command handler
func NewHandler() *Handler {
	return &Handler{}
}

// Start runs the relay until ctx is cancelled
func (h *Handler) Start(ctx context.Context, config cli.Configurable) error {
	cfg, ok := config.(*Config)
	if !ok {
		return ErrInvalidConfigType
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	r, err := NewRelay(cfg)
	if err != nil {
		return err
	}

	if err := r.Start(ctx); err != nil {
		r.Close() //nolint:errcheck
		return err
	}

	<-ctx.Done()
	log.Printf("shutting down")
	return r.Close()
}
