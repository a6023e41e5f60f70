package doorbellctl

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/doorbell/internal/cli"
)

// fakeServer answers /switch and /config the way doorbell-relay does
type fakeServer struct {
	requests []SwitchRequest
	status   int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"status":"error","message":"server on fire"}`)
		return
	}

	switch {
	case r.URL.Path == "/switch" && r.Method == http.MethodPost:
		var req SwitchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req)
		_, _ = io.WriteString(w, `{"status":"ok","displayed":true,"relay":{"state":"active","displayed":true}}`)
	case r.URL.Path == "/switch":
		_, _ = io.WriteString(w, `{"status":"ok","displayed":true,"relay":{"state":"active","displayed":true,"reset_pending":true,"pushes_attempted":3,"pushes_dispatched":2,"pushes_skipped":1,"resets":1}}`)
	case r.URL.Path == "/config":
		_, _ = io.WriteString(w, `{"dwell-duration":"1.75s","active-value":"true","inactive-value":"false","disable-logging":false}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestHandler(t *testing.T, srv *fakeServer, output string) (*Handler, *bytes.Buffer, func(args ...string) error) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	var stdout bytes.Buffer
	h := NewHandler(ts.Client(), &stdout)
	cfg := &Config{ServerURL: ts.URL + "/", Output: output}

	run := func(args ...string) error {
		return h.Execute(&cli.CommandArgs{Command: "start", Config: cfg, Args: args})
	}
	return h, &stdout, run
}

func TestHandler_PressRelease(t *testing.T) {
	srv := &fakeServer{}
	_, stdout, run := newTestHandler(t, srv, "text")

	require.NoError(t, run("press"))
	require.NoError(t, run("release"))

	assert.Equal(t, []SwitchRequest{{State: "on"}, {State: "off"}}, srv.requests)
	assert.Contains(t, stdout.String(), "Sent on (relay active)")
	assert.Contains(t, stdout.String(), "Sent off")
}

func TestHandler_Status(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "text",
			output: "text",
			want:   []string{"Displayed: on", "State: active", "Pushes: 3 attempted, 2 dispatched, 1 skipped, 0 failed", "Resets: 1"},
		},
		{
			name:   "json",
			output: "json",
			want:   []string{`"state": "active"`, `"pushes_skipped": 1`},
		},
		{
			name:   "yaml",
			output: "yaml",
			want:   []string{"state: active", "reset_pending: true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stdout, run := newTestHandler(t, &fakeServer{}, tt.output)
			require.NoError(t, run("status"))
			for _, want := range tt.want {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}

func TestHandler_Config(t *testing.T) {
	_, stdout, run := newTestHandler(t, &fakeServer{}, "text")
	require.NoError(t, run("config"))
	assert.Contains(t, stdout.String(), "dwell-duration: 1.75s")
	assert.Contains(t, stdout.String(), `active-value: "true"`)
}

func TestHandler_Errors(t *testing.T) {
	_, _, run := newTestHandler(t, &fakeServer{}, "text")
	assert.ErrorIs(t, run("bogus"), ErrUsage)
	assert.ErrorIs(t, run("press", "extra"), ErrUsage)

	_, _, run = newTestHandler(t, &fakeServer{status: http.StatusInternalServerError}, "text")
	err := run("press")
	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "server on fire")
}

func TestHandler_HelpAndVersion(t *testing.T) {
	_, stdout, run := newTestHandler(t, &fakeServer{}, "text")
	require.NoError(t, run())
	assert.Contains(t, stdout.String(), "Usage: doorbellctl")

	stdout.Reset()
	h := NewHandler(nil, stdout)
	require.NoError(t, h.Execute(&cli.CommandArgs{Command: "version"}))
	assert.NotEmpty(t, stdout.String())
}

func TestConfig_ServerURLPrecedence(t *testing.T) {
	t.Setenv(serverURLEnv, "http://env.example:8080")

	cfg := NewConfig()
	assert.Equal(t, "http://env.example:8080", cfg.ServerURL)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--server-url", "http://flag.example"}))
	require.NoError(t, cfg.LoadConfigWithFlagSet(fs))
	assert.Equal(t, "http://flag.example", cfg.ServerURL)
}

func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doorbellctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("server-url = \"http://file.example\"\noutput = \"yaml\"\n"), 0o600))

	cfg := NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path}))
	require.NoError(t, cfg.LoadConfigWithFlagSet(fs))
	assert.Equal(t, "http://file.example", cfg.ServerURL)
	assert.Equal(t, "yaml", cfg.Output)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadEnv())
}
