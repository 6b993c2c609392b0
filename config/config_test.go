package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"--source=mic"})
	require.NoError(t, err)
	assert.Equal(t, 44100.0, cfg.SampleRateHz)
	assert.Equal(t, "Robot 36", cfg.Mode)
	assert.Equal(t, SourceMic, cfg.Source)
}

func TestLoadRejectsWAVSourceWithoutPath(t *testing.T) {
	_, err := Load([]string{"--source=wav"})
	assert.Error(t, err)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sstv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: \"PD 120\"\nsample_rate_hz: 48000\n"), 0o644))

	cfg, err := Load([]string{"--config-file=" + path, "--mode=Scottie S1", "--source=mic"})
	require.NoError(t, err)

	assert.Equal(t, "Scottie S1", cfg.Mode, "flag must win over file")
	assert.Equal(t, 48000.0, cfg.SampleRateHz, "file value kept where no flag was given")
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	_, err := Load([]string{"--source=carrier-pigeon"})
	assert.Error(t, err)
}

func TestLoadSnapshotPathDefaultsEmpty(t *testing.T) {
	cfg, err := Load([]string{"--source=mic"})
	require.NoError(t, err)
	assert.Equal(t, "", cfg.SnapshotPath)
}

func TestLoadSnapshotPathFlag(t *testing.T) {
	cfg, err := Load([]string{"--source=mic", "--snapshot-path=/tmp/out.png"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.png", cfg.SnapshotPath)
}
