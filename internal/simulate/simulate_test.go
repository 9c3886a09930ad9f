package simulate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReportsAHouseEdgePerGame(t *testing.T) {
	cfg := Config{
		Games: []GameSpec{
			{GameType: "Dice", Bet: 100},
			{GameType: "HiLo", Bet: 100},
		},
		Trials: 200,
	}

	results, err := Run(cfg)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		require.Equal(t, int64(200), r.Stats.Trials)
		require.Greater(t, r.Stats.MeanWagered(), 0.0)
	}
}

func TestStatsHouseEdgeAndStdErr(t *testing.T) {
	var s Stats
	s.Add(-50, 100)
	s.Add(150, 100)
	s.Add(-50, 100)
	s.Add(-50, 100)

	require.Equal(t, int64(4), s.Trials)
	require.InDelta(t, 0.0, s.MeanNet(), 1e-9)
	require.InDelta(t, 0.0, s.HouseEdge(), 1e-9)
	require.Greater(t, s.StdErr(), 0.0)
}

func TestStatsZeroTrialsIsSafe(t *testing.T) {
	var s Stats
	require.Equal(t, 0.0, s.MeanNet())
	require.Equal(t, 0.0, s.MeanWagered())
	require.Equal(t, 0.0, s.HouseEdge())
	require.Equal(t, 0.0, s.StdErr())
}
