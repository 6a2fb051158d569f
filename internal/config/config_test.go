package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequiresExactlyOneInputSource(t *testing.T) {
	_, err := Parse([]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)

	_, err = Parse([]string{"-f", "a.bin", "-d"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseFileSourceDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-f", "samples.bin"})
	require.NoError(t, err)
	assert.Equal(t, InputFile, cfg.InputKind)
	assert.Equal(t, "samples.bin", cfg.InputPath)
	assert.Equal(t, iq.EncodingI8, cfg.Encoding)
	assert.Len(t, cfg.PRNs, 32)
	assert.Equal(t, 1, cfg.PRNs[0])
	assert.Equal(t, 32, cfg.PRNs[31])
}

func TestParseRemoteHostSource(t *testing.T) {
	cfg, err := Parse([]string{"-h", "192.168.1.5:1234", "-t", "u8"})
	require.NoError(t, err)
	assert.Equal(t, InputRemoteTCP, cfg.InputKind)
	assert.Equal(t, "192.168.1.5:1234", cfg.RemoteAddr)
	assert.Equal(t, iq.EncodingU8, cfg.Encoding)
}

func TestParseCustomPRNList(t *testing.T) {
	cfg, err := Parse([]string{"-d", "-p", "3,7,14"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 14}, cfg.PRNs)
}

func TestParseRejectsInvalidPRN(t *testing.T) {
	_, err := Parse([]string{"-d", "-p", "99"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseRejectsUnknownEncoding(t *testing.T) {
	_, err := Parse([]string{"-d", "-t", "garbage"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseHelpRequested(t *testing.T) {
	_, err := Parse([]string{"-?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errHelpRequested)
	assert.Equal(t, ExitSuccess, ExitCodeFor(err))
}

func TestParseYAMLOverlayNarrowsPRNsAndSetsGain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnssrecv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device_gain_tenth_db: 400
diagnostic_interval_seconds: 5
prns: [11, 22]
`), 0o644))

	cfg, err := Parse([]string{"-d", "-c", path})
	require.NoError(t, err)
	assert.Equal(t, int32(400), cfg.GainTenthDb)
	assert.Equal(t, 5.0, cfg.DiagInterval)
	assert.Equal(t, []int{11, 22}, cfg.PRNs)
}

func TestParseYAMLOverlayDoesNotOverrideExplicitPRNFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnssrecv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prns: [1, 2, 3]\n"), 0o644))

	cfg, err := Parse([]string{"-d", "-p", "5,6", "-c", path})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, cfg.PRNs)
}

func TestExitCodeForMapsErrorKinds(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, ExitInputIO, ExitCodeFor(gnsserr.ErrInputIO))
	assert.Equal(t, ExitDeviceErr, ExitCodeFor(gnsserr.ErrDeviceUnavailable))
	assert.Equal(t, ExitInternal, ExitCodeFor(gnsserr.ErrInternalInvariant))
}
