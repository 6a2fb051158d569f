package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doismellburning/gnssrecv/internal/acquisition"
	"github.com/doismellburning/gnssrecv/internal/config"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/measurement"
	"github.com/doismellburning/gnssrecv/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempIQFile(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.i8")
	require.NoError(t, os.WriteFile(path, make([]byte, n), 0o644))
	return path
}

func testConfig(t *testing.T, prns []int) *config.Config {
	return &config.Config{
		InputKind: config.InputFile,
		InputPath: tempIQFile(t, 4_092_000), // 1 second at 2,046,000 Sps, 2 bytes/sample (i8)
		Encoding:  iq.EncodingI8,
		PRNs:      prns,
	}
}

func TestNewOpensFileSourceAndBuildsCollaborators(t *testing.T) {
	p, err := New(testConfig(t, []int{1, 2, 3}))
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.conditioner)
	assert.NotNil(t, p.bank)
	assert.NotNil(t, p.acq)
	assert.NotNil(t, p.store)
	assert.Empty(t, p.tracks)
}

func TestNewRejectsMissingInputKind(t *testing.T) {
	_, err := New(&config.Config{})
	require.Error(t, err)
}

func TestAddTrackCreatesPairedChannelAndDecoder(t *testing.T) {
	p, err := New(testConfig(t, []int{11}))
	require.NoError(t, err)
	defer p.Close()

	p.addTrack(acquisitionResultFor(t, 11))
	require.Contains(t, p.tracks, 11)
	assert.Equal(t, 11, p.tracks[11].ch.PRN)
}

func TestRecycleLostChannelsRemovesOnlyLostOnes(t *testing.T) {
	p, err := New(testConfig(t, []int{11, 12}))
	require.NoError(t, err)
	defer p.Close()

	p.addTrack(acquisitionResultFor(t, 11))
	p.addTrack(acquisitionResultFor(t, 12))
	p.tracks[11].ch.State = tracking.StateLost

	p.recycleLostChannels()
	assert.NotContains(t, p.tracks, 11)
	assert.Contains(t, p.tracks, 12)
}

func TestBuildSnapshotIncludesEveryTrackedChannel(t *testing.T) {
	p, err := New(testConfig(t, []int{11, 12}))
	require.NoError(t, err)
	defer p.Close()

	p.addTrack(acquisitionResultFor(t, 11))
	p.addTrack(acquisitionResultFor(t, 12))

	snap := p.buildSnapshot(5, "no fix")
	assert.Equal(t, uint64(5), snap.Epoch)
	assert.Equal(t, "no fix", snap.FixSummary)
	assert.Len(t, snap.Channels, 2)
}

func TestBuildSolverRequestCopiesEphemerisWhenAvailable(t *testing.T) {
	p, err := New(testConfig(t, []int{11}))
	require.NoError(t, err)
	defer p.Close()

	meas := []measurement.Measurement{{PRN: 11, TransmitTime: 100.0, PseudorangeM: 2e7, DopplerHz: 500, CN0: 40}}
	req := p.buildSolverRequest(3, meas)
	require.Len(t, req.Satellites, 1)
	assert.Equal(t, 11, req.Satellites[0].PRN)
	assert.Equal(t, 0, req.Satellites[0].WeekNumber) // no ephemeris ingested yet
}

func acquisitionResultFor(t *testing.T, prn int) acquisition.Result {
	t.Helper()
	return acquisition.Result{PRN: prn, CodePhase: 128.0, Doppler: 1500.0, Peak: 10, SNR: 12}
}
