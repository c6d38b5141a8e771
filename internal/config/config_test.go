package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
nick: trackd
server: irc.example.net
channel: "#ops"
secret: hunter2
servers:
  - name: S1
    addr: s1.example.net
  - name: S2
    addr: s2.example.net
    port: 7000
    channel: "#relay"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 6667, cfg.Port)
	assert.Equal(t, ",", cfg.Trigger)
	assert.Equal(t, "trackd", cfg.Username)
	assert.Equal(t, "trackd_", cfg.Alternate)
	assert.Equal(t, 2*time.Hour, cfg.TempmuteMax.Std())
	assert.Equal(t, 30*24*time.Hour, cfg.TempbanMax.Std())
	assert.Equal(t, 5*time.Minute, cfg.DefaultDuration.Std())
	assert.Equal(t, 2, cfg.WarnAllowance)
	assert.Equal(t, 30*time.Minute, cfg.WarnMuteFor.Std())
	assert.Equal(t, 15*time.Second, cfg.ListCooldown.Std())
	assert.Equal(t, "./data", cfg.DataDir)

	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, 6667, cfg.Servers[0].Port)
	assert.Equal(t, "#bridge", cfg.Servers[0].Channel)
	assert.Equal(t, 7000, cfg.Servers[1].Port)
	assert.Equal(t, "#relay", cfg.Servers[1].Channel)
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig+`
trigger: "!"
tempmute_max: 1h
default_duration: 10m
`))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Trigger)
	assert.Equal(t, time.Hour, cfg.TempmuteMax.Std())
	assert.Equal(t, 10*time.Minute, cfg.DefaultDuration.Std())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRACKD_NICK", "watcher")
	t.Setenv("TRACKD_TEMPMUTE_MAX", "45m")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "watcher", cfg.Nick)
	assert.Equal(t, "watcher", cfg.Username)
	assert.Equal(t, 45*time.Minute, cfg.TempmuteMax.Std())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing nick",
			body: "server: irc.example.net\nchannel: \"#ops\"\nsecret: x\nservers: [{name: S1, addr: a}]\n",
			want: "nick is required",
		},
		{
			name: "missing secret",
			body: "nick: t\nserver: irc.example.net\nchannel: \"#ops\"\nservers: [{name: S1, addr: a}]\n",
			want: "secret is required",
		},
		{
			name: "no servers",
			body: "nick: t\nserver: irc.example.net\nchannel: \"#ops\"\nsecret: x\n",
			want: "at least one game server is required",
		},
		{
			name: "duplicate server names",
			body: "nick: t\nserver: i\nchannel: \"#o\"\nsecret: x\nservers: [{name: S1, addr: a}, {name: s1, addr: b}]\n",
			want: "duplicate server name",
		},
		{
			name: "server name with at sign",
			body: "nick: t\nserver: i\nchannel: \"#o\"\nsecret: x\nservers: [{name: \"a@b\", addr: a}]\n",
			want: "may not contain",
		},
		{
			name: "server without addr",
			body: "nick: t\nserver: i\nchannel: \"#o\"\nsecret: x\nservers: [{name: S1}]\n",
			want: "missing addr",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90m")))
	assert.Equal(t, 90*time.Minute, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
