package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/nobletooth/ttlcache/pkg/ttl" // Registers the ttl_* flags.
	"github.com/nobletooth/ttlcache/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
logging {
  log_handler_type: "text"
  log_level: "debug"
}
reaper {
  ttl_sweep_interval { seconds: 2 nanos: 500000000 }
  ttl_sweep_lock_wait { nanos: 5000000 }
}
`

// restoreFlags puts the given flags back to their current values once the test is done.
func restoreFlags(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		prevValue := flag.Lookup(name).Value.String()
		t.Cleanup(func() { require.NoError(t, flag.Set(name, prevValue)) })
	}
}

func TestParseConfig(t *testing.T) {
	conf, err := parseConfig([]byte(testConfig))
	require.NoError(t, err)

	flags := make(map[string]string)
	require.NoError(t, collectAndRegisterFlags(flags, conf))
	assert.Equal(t, map[string]string{
		"log_handler_type":    "text",
		"log_level":           "debug",
		"ttl_sweep_interval":  "2.5s",
		"ttl_sweep_lock_wait": "5ms",
	}, flags)
}

func TestParseConfig_ZeroValuesAreCollected(t *testing.T) {
	conf, err := parseConfig([]byte(`logging { } demo { demo_rounds: 0 } metrics_address: ""`))
	require.NoError(t, err)

	flags := make(map[string]string)
	require.NoError(t, collectAndRegisterFlags(flags, conf))
	assert.Equal(t, map[string]string{
		"demo_rounds":     "0",
		"metrics_address": "",
	}, flags, "Explicit zero values override flags; omitted fields don't")
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := parseConfig([]byte(`unknown_field: 1`))
	assert.Error(t, err)

	conf, err := parseConfig([]byte(`reaper { ttl_sweep_interval { seconds: 1 nanos: -1 } }`))
	require.NoError(t, err)
	assert.Error(t, collectAndRegisterFlags(make(map[string]string), conf),
		"Durations with mismatched signs are invalid")
}

func TestSetConfigFlags(t *testing.T) {
	restoreFlags(t, "log_handler_type", "log_level", "ttl_sweep_interval", "ttl_sweep_lock_wait")
	conf, err := parseConfig([]byte(testConfig))
	require.NoError(t, err)

	require.NoError(t, setConfigFlags(conf, map[string]bool{"log_level": true}))
	assert.Equal(t, "text", flag.Lookup("log_handler_type").Value.String())
	assert.Equal(t, "info", flag.Lookup("log_level").Value.String(), "Explicit flags take precedence")
	assert.Equal(t, (2500 * time.Millisecond).String(), flag.Lookup("ttl_sweep_interval").Value.String())
	assert.Equal(t, (5 * time.Millisecond).String(), flag.Lookup("ttl_sweep_lock_wait").Value.String())
}

func TestSetConfigFlags_UnknownFlag(t *testing.T) {
	// The demo flags live in the binary, not in this test.
	conf, err := parseConfig([]byte(`demo { demo_rounds: 3 }`))
	require.NoError(t, err)
	assert.ErrorContains(t, setConfigFlags(conf, nil), "demo_rounds")
}

func TestInitFlags_FromFile(t *testing.T) {
	restoreFlags(t, "log_handler_type", "log_level", "ttl_sweep_interval", "ttl_sweep_lock_wait")
	path := filepath.Join(t.TempDir(), "config.txtpb")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	utils.SetTestFlag(t, "config_file", path)

	InitFlags()
	assert.Equal(t, "debug", flag.Lookup("log_level").Value.String())
	assert.Equal(t, "2.5s", flag.Lookup("ttl_sweep_interval").Value.String())
}

func TestInitFlags_MissingFile(t *testing.T) {
	restoreFlags(t, "log_level")
	utils.SetTestFlag(t, "config_file", filepath.Join(t.TempDir(), "missing.txtpb"))
	assert.NotPanics(t, InitFlags)
	assert.Equal(t, "info", flag.Lookup("log_level").Value.String())
}

func TestGetDefinedFlags(t *testing.T) {
	md, err := configSchema()
	require.NoError(t, err)
	definedFlags, err := getDefinedFlags(md)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"log_handler_type":    {},
		"log_level":           {},
		"ttl_sweep_interval":  {},
		"ttl_sweep_lock_wait": {},
		"demo_ttl":            {},
		"demo_rounds":         {},
		"demo_delay":          {},
		"metrics_address":     {},
	}, definedFlags)
}

func TestCommandLineFlags(t *testing.T) {
	restoreFlags(t, "log_level")
	require.NoError(t, flag.Set("log_level", "warn")) // Set programmatically, not on the command line.

	explicit := commandLineFlags([]string{"-ttl_sweep_interval=3s", "--log_handler_type", "text", "positional"})
	assert.Equal(t, map[string]bool{"ttl_sweep_interval": true, "log_handler_type": true}, explicit)
	assert.Equal(t, "warn", flag.Lookup("log_level").Value.String())
	assert.NotEqual(t, "3s", flag.Lookup("ttl_sweep_interval").Value.String(), "Detection must not assign flags")
}
