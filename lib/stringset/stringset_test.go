package stringset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringSetKeepsFirstOccurrenceOrder(t *testing.T) {
	set := New("bqx7xre7s", "bck7gp3q2", "bqx7xre7s")
	set.Add("bck7gp3q2", "bqdev0001")

	require.Equal(t, 3, set.Len())
	require.True(t, set.Contains("bqdev0001"))
	require.False(t, set.Contains("bqx"))
	require.Equal(t, []string{"bqx7xre7s", "bck7gp3q2", "bqdev0001"}, set.ToSlice())
}

func TestStringSetEmpty(t *testing.T) {
	set := New()
	require.Zero(t, set.Len())
	require.Empty(t, set.ToSlice())
}
