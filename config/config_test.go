package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/twt"
	"github.com/stretchr/testify/require"
)

func TestPresetsValidate(t *testing.T) {
	for name, p := range map[string]Parameters{
		"testnet":    Testnet(),
		"mainnet":    MainnetLike(),
		"local":      LocalSingleNode(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Validate())
		})
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	p := Testnet()
	p.Aggregation.TrimFraction = 0.9
	p.Privacy.Epsilon = -1
	p.Audit.Interval = 0

	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "trim_fraction")
	require.Contains(t, err.Error(), "epsilon")
	require.Contains(t, err.Error(), "audit.interval")
}

func TestBuilderOverridesAndValidates(t *testing.T) {
	p, err := NewBuilder(Testnet()).
		WithPrivacyBudget(2.0, 1e-5, 1.5).
		WithAuditCadence(10, 4).
		RequireSignatures(true).
		Build()
	require.NoError(t, err)
	require.Equal(t, 2.0, p.Privacy.Epsilon)
	require.Equal(t, uint64(10), p.Audit.Interval)
	require.True(t, p.Security.RequireSignatures)
}

func TestBuilderRejectsInvalidOverride(t *testing.T) {
	_, err := NewBuilder(Testnet()).WithPrivacyBudget(0, 1e-5, 1.0).Build()
	require.Error(t, err)
}

func TestModeRoundTripsThroughName(t *testing.T) {
	for _, m := range []aggregator.Mode{aggregator.SimpleMean, aggregator.Krum, aggregator.Adaptive} {
		parsed, ok := aggregator.ParseMode(m.String())
		require.True(t, ok)
		require.Equal(t, m, parsed)
	}
}

func TestRoleRoundTripsThroughName(t *testing.T) {
	for _, r := range []twt.Role{twt.Sentinel, twt.OnDemand, twt.Scheduled} {
		parsed, ok := twt.ParseRole(r.String())
		require.True(t, ok)
		require.Equal(t, r, parsed)
	}
}

func TestLoadSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")

	original := MainnetLike()
	require.NoError(t, SaveFile(path, original))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, original.Aggregation.Mode, loaded.Aggregation.Mode)
	require.Equal(t, original.TWT.Role, loaded.TWT.Role)
	require.Equal(t, original.Audit.Interval, loaded.Audit.Interval)
}

func TestLoadFileRejectsInvalidParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aggregation:\n  buffer_size: -1\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}
