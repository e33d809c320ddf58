package availability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntensity(t *testing.T) {
	testCases := []struct {
		free  int
		total int
		want  Bucket
	}{
		{free: 0, total: 0, want: NoData},
		{free: 3, total: 0, want: NoData},
		{free: 4, total: 4, want: EveryoneFree},
		{free: 3, total: 4, want: Mostly},
		{free: 7, total: 8, want: Mostly},
		{free: 2, total: 4, want: Half},
		{free: 2, total: 3, want: Half},
		{free: 1, total: 4, want: Few},
		{free: 1, total: 3, want: Few},
		{free: 1, total: 5, want: MostlyBusy},
		{free: 0, total: 5, want: NoData},
		{free: -1, total: 5, want: NoData},
		{free: 6, total: 5, want: EveryoneFree},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Intensity(tc.free, tc.total), "%d/%d", tc.free, tc.total)
	}
}

func TestIntensity_BandsAreMonotonic(t *testing.T) {
	for total := 1; total <= 12; total++ {
		previous := Intensity(0, total)
		for free := 1; free <= total; free++ {
			current := Intensity(free, total)
			assert.GreaterOrEqual(t, int(current), int(previous), "%d/%d", free, total)
			previous = current
		}
	}
}

func TestBucket_JSON(t *testing.T) {
	out, err := json.Marshal(map[string]Bucket{"intensity": Half})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intensity":"half"}`, string(out))

	var decoded Bucket
	require.NoError(t, decoded.UnmarshalText([]byte("everyone_free")))
	assert.Equal(t, EveryoneFree, decoded)
	assert.Error(t, decoded.UnmarshalText([]byte("loads")))
	assert.Equal(t, "bucket(42)", Bucket(42).String())
}
