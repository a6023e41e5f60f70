package remote

import (
	"log"
	"sync"
)

// Slot holds the current Device, if any. Readers never block on discovery:
// an empty slot is reported as absent.
type Slot struct {
	mu     sync.RWMutex
	device Device
}

func NewSlot() *Slot {
	return &Slot{}
}

// Set installs the device. Filling the slot does not push any state.
func (s *Slot) Set(d Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = d
	log.Printf("remote device %v available", d)
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device != nil {
		log.Printf("remote device %v unavailable", s.device)
	}
	s.device = nil
}

// Handle returns the current device and whether one is present.
func (s *Slot) Handle() (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device, s.device != nil
}
