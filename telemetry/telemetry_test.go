package telemetry

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegimeWriterWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regime.csv")
	w, err := NewRegimeWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Record(time.Now(), "calm", 0.1, 0.2))
	require.NoError(t, w.Close())

	w2, err := NewRegimeWriter(path)
	require.NoError(t, err)
	require.NoError(t, w2.Record(time.Now(), "storm", 0.9, 0.8))
	require.NoError(t, w2.Close())

	rows := readCSV(t, path)
	require.Equal(t, []string{"timestamp", "state", "entropy", "throughput"}, rows[0])
	require.Len(t, rows, 3) // header + 2 records, header written only once
}

func TestSingularityWriterSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "singularity.csv")
	w, err := NewSingularityWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Record(SingularitySample{
		Timestamp: time.Now(), LocalLoss: 0.5, SwarmVariance: 0.1,
		ActivePeers: 9, TotalEnergy: 1000, EfficiencyRatio: 0.75,
	}))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Equal(t, []string{
		"timestamp", "local_loss", "swarm_variance", "active_peers", "total_energy", "efficiency_ratio",
	}, rows[0])
	require.Equal(t, "9", rows[1][3])
}

func TestEnergyWriterComputesRatio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy.csv")
	w, err := NewEnergyWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Record(time.Now(), 250, 1000))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Equal(t, "0.250000", rows[1][3])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
