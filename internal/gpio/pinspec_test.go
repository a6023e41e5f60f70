package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePinNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{name: "direct number", input: "18", expected: 18},
		{name: "GPIO prefix uppercase", input: "GPIO18", expected: 18},
		{name: "GPIO prefix lowercase", input: "gpio18", expected: 18},
		{name: "zero pin number", input: "GPIO0", expected: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "prefix only", input: "GPIO", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "pin7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePinNumber(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPinSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     PinSpec
		wantText string
		wantErr  bool
	}{
		{name: "bare pin", input: "GPIO17", want: PinSpec{LineNum: 17, Polarity: ActiveHigh}, wantText: "GPIO17:active-high"},
		{name: "active low", input: "GPIO17:active-low", want: PinSpec{LineNum: 17, Polarity: ActiveLow}, wantText: "GPIO17:active-low"},
		{name: "number with polarity", input: "4:Active-High", want: PinSpec{LineNum: 4, Polarity: ActiveHigh}, wantText: "GPIO4:active-high"},
		{name: "unknown parameter", input: "GPIO17:pull-up", wantErr: true},
		{name: "bad pin", input: "GPIOx:active-low", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePin(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPinSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
			assert.Equal(t, tt.wantText, got.String())
		})
	}
}

func TestPinSpec_Level(t *testing.T) {
	high := &PinSpec{LineNum: 1, Polarity: ActiveHigh}
	low := &PinSpec{LineNum: 1, Polarity: ActiveLow}

	assert.Equal(t, 1, high.Level(true))
	assert.Equal(t, 0, high.Level(false))
	assert.Equal(t, 0, low.Level(true))
	assert.Equal(t, 1, low.Level(false))
}
