package config

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundCommand(t *testing.T) (*cobra.Command, *viper.Viper) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()
	require.NoError(t, BindFlags(cmd, v))
	return cmd, v
}

func TestLoadAppliesDefaultsWithNoOverrides(t *testing.T) {
	_, v := newBoundCommand(t)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("host", "0.0.0.0"))
	require.NoError(t, cmd.Flags().Set("port", "9999"))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9999, cfg.Port)
}

func TestEnvOverridesDefaultButNotFlag(t *testing.T) {
	t.Setenv("TEMPUSCACHED_MEMORYLIMIT", "256")
	t.Setenv("TEMPUSCACHED_PORT", "8000")
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("port", "7000"))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MemoryLimitMB)
	assert.Equal(t, 7000, cfg.Port)
}

func TestConfigFileIsReadWhenConfigFlagIsSet(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/tempuscached.yaml"
	require.NoError(t, os.WriteFile(path, []byte("host: 10.0.0.5\nverbosity: 3\n"), 0o644))

	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("config", path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 3, cfg.Verbosity)
}

func TestLoadRejectsOutOfRangeVerbosity(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("verbosity", "7"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("port", "70000"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveMemoryLimit(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("memorylimit", "0"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("config", "/nonexistent/path.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}
