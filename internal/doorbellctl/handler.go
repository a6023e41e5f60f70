package doorbellctl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larsks/doorbell/internal/cli"
	"github.com/larsks/doorbell/internal/indicator"
	"github.com/larsks/doorbell/internal/relay"
	"github.com/larsks/doorbell/internal/version"
)

var (
	ErrUsage    = errors.New("usage error")
	ErrAPI      = errors.New("API error")
	ErrResponse = errors.New("invalid response")
)

// SwitchRequest is the body of POST /switch
type SwitchRequest struct {
	State string `json:"state"`
}

// SwitchResponse is returned by GET and POST /switch
type SwitchResponse struct {
	Status    string        `json:"status" yaml:"status"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	Displayed bool          `json:"displayed" yaml:"displayed"`
	Relay     *relay.Status `json:"relay,omitempty" yaml:"relay,omitempty"`
}

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler implements the doorbellctl commands
type Handler struct {
	config     *Config
	httpClient HTTPClient
	stdout     io.Writer
}

// NewHandler creates a new doorbellctl handler
func NewHandler(httpClient HTTPClient, stdout io.Writer) *Handler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Handler{
		httpClient: httpClient,
		stdout:     stdout,
	}
}

// Execute runs the command named by the first positional argument
func (h *Handler) Execute(cmdArgs *cli.CommandArgs) error {
	if cmdArgs.Command == "version" {
		fmt.Fprintln(h.stdout, version.String())
		return nil
	}

	cfg, ok := cmdArgs.Config.(*Config)
	if !ok {
		return fmt.Errorf("%w: invalid config type", ErrUsage)
	}
	h.config = cfg

	if len(cmdArgs.Args) == 0 {
		h.showHelp()
		return nil
	}

	command, args := cmdArgs.Args[0], cmdArgs.Args[1:]
	if len(args) != 0 {
		return fmt.Errorf("%w: %s takes no arguments", ErrUsage, command)
	}

	switch command {
	case "help":
		h.showHelp()
		return nil
	case "version":
		fmt.Fprintln(h.stdout, version.String())
		return nil
	case "press":
		return h.cmdSwitch("on")
	case "release":
		return h.cmdSwitch("off")
	case "status":
		return h.cmdStatus()
	case "config":
		return h.cmdConfig()
	default:
		return fmt.Errorf("%w: unknown command: %s", ErrUsage, command)
	}
}

func (h *Handler) showHelp() {
	fmt.Fprintf(h.stdout, `doorbellctl - Command line tool for the doorbell relay

Usage: doorbellctl [flags] <command>

Commands:
  press     Activate the relay (restarts the dwell timer if already active)
  release   Send an off command (does not end an active pulse early)
  status    Show the relay state and push counters
  config    Show the effective relay configuration
  help      Show this help
  version   Show version information

Flags:
  --config string       Config file to use (default "%s")
  --server-url string   Server URL (default "%s", env %s)
  -o, --output string   Output format: text, json or yaml (default "text")
`, getDefaultConfigFile(), defaultServerURL, serverURLEnv)
}

func (h *Handler) cmdSwitch(state string) error {
	body, err := json.Marshal(SwitchRequest{State: state})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := h.switchRequest(http.MethodPost, body)
	if err != nil {
		return err
	}

	if resp.Relay != nil {
		fmt.Fprintf(h.stdout, "Sent %s (relay %s)\n", state, resp.Relay.State)
	} else {
		fmt.Fprintf(h.stdout, "Sent %s\n", state)
	}
	return nil
}

func (h *Handler) cmdStatus() error {
	resp, err := h.switchRequest(http.MethodGet, nil)
	if err != nil {
		return err
	}

	switch h.config.Output {
	case "json", "yaml":
		return h.write(resp)
	}

	displayed := "off"
	if resp.Displayed {
		displayed = "on"
	}
	fmt.Fprintf(h.stdout, "Displayed: %s\n", displayed)

	if s := resp.Relay; s != nil {
		fmt.Fprintf(h.stdout, "State: %s\n", s.State)
		if s.ResetDue != nil {
			fmt.Fprintf(h.stdout, "Reset due: %s\n", s.ResetDue.Format(time.RFC3339Nano))
		}
		fmt.Fprintf(h.stdout, "Pushes: %d attempted, %d dispatched, %d skipped, %d failed\n",
			s.PushesAttempted, s.PushesDispatched, s.PushesSkipped, s.PushErrors)
		fmt.Fprintf(h.stdout, "Resets: %d\n", s.Resets)
	}
	return nil
}

func (h *Handler) cmdConfig() error {
	data, err := h.makeAPIRequest(http.MethodGet, "/config", nil)
	if err != nil {
		return err
	}

	var cfg indicator.ConfigResponse
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrResponse, err)
	}

	if h.config.Output == "json" {
		return h.write(cfg)
	}
	return h.writeYAML(cfg)
}

func (h *Handler) write(v any) error {
	if h.config.Output == "json" {
		enc := json.NewEncoder(h.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return h.writeYAML(v)
}

func (h *Handler) writeYAML(v any) error {
	enc := yaml.NewEncoder(h.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func (h *Handler) switchRequest(method string, body []byte) (*SwitchResponse, error) {
	data, err := h.makeAPIRequest(method, "/switch", body)
	if err != nil {
		return nil, err
	}

	var resp SwitchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponse, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: %s", ErrAPI, resp.Message)
	}
	return &resp, nil
}

func (h *Handler) makeAPIRequest(method, path string, body []byte) ([]byte, error) {
	url := strings.TrimSuffix(h.config.ServerURL, "/") + path

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiResp SwitchResponse
		if json.Unmarshal(data, &apiResp) == nil && apiResp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrAPI, apiResp.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrAPI, resp.StatusCode)
	}

	return data, nil
}
