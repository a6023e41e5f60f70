package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/doorbell/internal/daemon"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doorbell.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "defaults",
			content: "",
			want:    "dwell: 1.75s, active: true, inactive: false",
		},
		{
			name: "toggle preset with tasmota",
			content: `
preset = "toggle"

[remote]
driver = "tasmota"

[remote.options]
address = "192.168.1.50"
`,
			want: "dwell: 500ms, active: ON, inactive: OFF",
		},
		{
			name: "dwell override",
			content: `
dwell-duration = "3s"
`,
			want: "dwell: 3s",
		},
		{
			name:    "unknown key",
			content: `dwel-duration = "3s"`,
			wantErr: true,
		},
		{
			name: "unknown driver",
			content: `
[remote]
driver = "carrier-pigeon"
`,
			wantErr: true,
		},
		{
			name: "missing driver option",
			content: `
[remote]
driver = "tasmota"
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := check(writeConfig(t, tt.content), &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestCheck_InvalidValue(t *testing.T) {
	path := writeConfig(t, `
[http]
enabled = false
`)
	err := check(path, &bytes.Buffer{})
	assert.ErrorIs(t, err, daemon.ErrInvalidConfig)
}

func TestCheck_MissingFile(t *testing.T) {
	err := check(filepath.Join(t.TempDir(), "missing.toml"), &bytes.Buffer{})
	assert.Error(t, err)
}
