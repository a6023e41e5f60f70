package indicator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brutella/hap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	commandHub
	name     string
	mu       sync.Mutex
	shown    []bool
	started  bool
	closeErr error
	startErr error
}

func (f *fakeSurface) SetDisplayedState(on bool) {
	f.setDisplayed(on)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, on)
}

func (f *fakeSurface) Shown() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.shown...)
}

func (f *fakeSurface) Start(ctx context.Context) error {
	f.started = true
	return f.startErr
}

func (f *fakeSurface) Close() error   { return f.closeErr }
func (f *fakeSurface) String() string { return f.name }

func TestCommandHub(t *testing.T) {
	var hub commandHub
	var got []bool
	hub.OnCommand(func(on bool) { got = append(got, on) })
	hub.OnCommand(func(on bool) { got = append(got, !on) })

	hub.emit(true)
	assert.Equal(t, []bool{true, false}, got)
	assert.True(t, hub.Displayed(), "a command is recorded as the displayed state")
}

func TestCommandHub_HandlersRegisteredDuringEmit(t *testing.T) {
	var hub commandHub
	calls := 0
	hub.OnCommand(func(on bool) {
		calls++
		hub.OnCommand(func(bool) { calls += 10 })
	})

	hub.emit(true)
	assert.Equal(t, 1, calls, "handlers added while emitting run from the next command")

	hub.emit(false)
	assert.Equal(t, 12, calls)
	assert.False(t, hub.Displayed())
}

func TestMulti_FanOut(t *testing.T) {
	a := &fakeSurface{name: "a"}
	b := &fakeSurface{name: "b"}
	m := NewMulti(a, b)

	var commands []bool
	m.OnCommand(func(on bool) { commands = append(commands, on) })

	a.emit(true)
	assert.Equal(t, []bool{true}, commands)
	assert.Empty(t, a.Shown(), "the originating surface is not echoed")
	assert.Equal(t, []bool{true}, b.Shown())
	assert.True(t, a.Displayed())
	assert.True(t, b.Displayed())

	m.SetDisplayedState(false)
	assert.Equal(t, []bool{false}, a.Shown())
	assert.Equal(t, []bool{true, false}, b.Shown())
}

func TestMulti_StartClose(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	a := &fakeSurface{name: "a", closeErr: errA}
	b := &fakeSurface{name: "b", closeErr: errB}
	m := NewMulti(a, b)

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, a.started)
	assert.True(t, b.started)

	err := m.Close()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	c := &fakeSurface{name: "c", startErr: errA}
	d := &fakeSurface{name: "d"}
	assert.ErrorIs(t, NewMulti(c, d).Start(context.Background()), errA)
	assert.False(t, d.started)
}

func TestMQTTSwitch_HandleCommand(t *testing.T) {
	s := NewMQTTSwitch(MQTTConfig{ServerURL: "mqtt://localhost:1883", Topic: "home/doorbell/"})
	defer s.Close() //nolint:errcheck

	assert.Equal(t, "home/doorbell/set", s.commandTopic())
	assert.Equal(t, "home/doorbell/state", s.stateTopic())

	var commands []bool
	s.OnCommand(func(on bool) { commands = append(commands, on) })

	s.handleCommand(s.commandTopic(), []byte("ON"))
	s.handleCommand(s.commandTopic(), []byte("bogus"))
	s.handleCommand(s.commandTopic(), []byte("OFF"))

	assert.Equal(t, []bool{true, false}, commands)
	assert.False(t, s.Displayed())
}

func TestMQTTSwitch_Discovery(t *testing.T) {
	s := NewMQTTSwitch(MQTTConfig{})
	defer s.Close() //nolint:errcheck

	d := s.discovery()
	assert.Equal(t, "Doorbell", d.Name)
	assert.Equal(t, "doorbell_switch", d.UniqueID)
	assert.Equal(t, "doorbell/switch/set", d.CommandTopic)
	assert.Equal(t, "doorbell/switch/state", d.StateTopic)
	assert.Equal(t, "ON", d.PayloadOn)
}

func TestHomeKitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     HomeKitConfig
		wantErr error
	}{
		{name: "valid", cfg: HomeKitConfig{Pin: "00102003", StoragePath: "/tmp/x"}},
		{name: "short pin", cfg: HomeKitConfig{Pin: "1234", StoragePath: "/tmp/x"}, wantErr: ErrInvalidPin},
		{name: "non-digit pin", cfg: HomeKitConfig{Pin: "0010200a", StoragePath: "/tmp/x"}, wantErr: ErrInvalidPin},
		{name: "no storage", cfg: HomeKitConfig{Pin: "00102003"}, wantErr: ErrStoragePathRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := NewHomeKit(HomeKitConfig{Pin: "1"})
	assert.ErrorIs(t, err, ErrInvalidPin)
}

type memoryStore struct {
	data   map[string][]byte
	setErr error
}

func (m *memoryStore) Get(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (m *memoryStore) Set(key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestStoredSerial(t *testing.T) {
	store := &memoryStore{data: map[string][]byte{}}

	first, err := storedSerial(store)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := storedSerial(store)
	require.NoError(t, err)
	assert.Equal(t, first, second, "the serial survives a restart")

	store = &memoryStore{data: map[string][]byte{serialKey: []byte("  DB-0001\n")}}
	serial, err := storedSerial(store)
	require.NoError(t, err)
	assert.Equal(t, "DB-0001", serial)

	store = &memoryStore{data: map[string][]byte{}, setErr: errors.New("read-only")}
	_, err = storedSerial(store)
	assert.Error(t, err)
}

func TestStoredSerial_FsStore(t *testing.T) {
	dir := t.TempDir()

	first, err := storedSerial(hap.NewFsStore(dir))
	require.NoError(t, err)

	second, err := storedSerial(hap.NewFsStore(dir))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
