package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Krajiyah/ble-chat/pkg/util"
	"gotest.tools/assert"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.DeviceName, util.DefaultDeviceName)
	assert.Equal(t, cfg.Label, util.DefaultIncomingLabel)
	assert.Equal(t, cfg.Backend, BackendGoBLE)
	assert.Equal(t, cfg.HCIDevice, -1)
	assert.Equal(t, cfg.ResumeAdvertising, false)
	assert.Equal(t, cfg.LogLevel, "info")
	assert.NilError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
device_name: kitchen
label: "peer: "
backend: tinygo
hci_device: 1
resume_advertising: true
log_level: debug
log_file: /tmp/chat.log
`)
	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.DeviceName, "kitchen")
	assert.Equal(t, cfg.Label, "peer: ")
	assert.Equal(t, cfg.Backend, BackendTinyGo)
	assert.Equal(t, cfg.HCIDevice, 1)
	assert.Equal(t, cfg.ResumeAdvertising, true)
	assert.Equal(t, cfg.LogLevel, "debug")
	assert.Equal(t, cfg.LogFile, "/tmp/chat.log")
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "device_name: kitchen\n"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.DeviceName, "kitchen")
	assert.Equal(t, cfg.Label, util.DefaultIncomingLabel)
	assert.Equal(t, cfg.Backend, BackendGoBLE)
	assert.Equal(t, cfg.HCIDevice, -1)
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Load(writeConfig(t, "log_file: ~/chat.log\n"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.LogFile, filepath.Join(home, "chat.log"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "device_name: [unterminated\n"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, Default())

	_, err = LoadOrDefault(writeConfig(t, "hci_device: nope\n"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty name", func(c *Config) { c.DeviceName = "" }, "device_name"},
		{"bad backend", func(c *Config) { c.Backend = "bluez" }, "backend"},
		{"bad hci", func(c *Config) { c.HCIDevice = -2 }, "hci_device"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}
