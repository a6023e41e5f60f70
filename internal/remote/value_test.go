package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input   Value
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"ON", true, false},
		{"1", true, false},
		{" Open ", true, false},
		{"false", false, false},
		{"off", false, false},
		{"0", false, false},
		{"closed", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got, err := ParseBool(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlot(t *testing.T) {
	slot := NewSlot()

	_, ok := slot.Handle()
	assert.False(t, ok, "new slot is empty")

	device := NewDummyDevice("test")
	slot.Set(device)
	got, ok := slot.Handle()
	assert.True(t, ok)
	assert.Same(t, device, got)
	assert.Empty(t, device.Values(), "filling the slot does not push a value")

	slot.Clear()
	_, ok = slot.Handle()
	assert.False(t, ok)

	slot.Clear()
	_, ok = slot.Handle()
	assert.False(t, ok, "clearing an empty slot is harmless")
}
