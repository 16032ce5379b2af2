package tier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{score: 0, want: Starter},
		{score: 50, want: Starter},
		{score: 50.5, want: Growth},
		{score: 51, want: Growth},
		{score: 80, want: Growth},
		{score: 80.01, want: Scale},
		{score: 81, want: Scale},
		{score: 105, want: Scale},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromScore(tt.score), "score %v", tt.score)
	}
}

func TestDerive(t *testing.T) {
	assert.Equal(t, Unclassified, Derive(nil))
	assert.Equal(t, "Sin evaluar", Derive(nil).String())
	assert.Equal(t, LevelOf(Scale), Derive([]float64{60, 85}))
	assert.Equal(t, LevelOf(Growth), Derive([]float64{80, 12, 51}))
	assert.Equal(t, LevelOf(Starter), Derive([]float64{50}))
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	best, ok := Best([]float64{12, 80.004, 80})
	require.True(t, ok)
	assert.Equal(t, 80.004, best)
}

func TestClassify(t *testing.T) {
	growth := Growth
	empty := Tier("")

	tests := []struct {
		name   string
		quota  *Tier
		scores []float64
		want   Level
	}{
		{name: "quota wins over higher score", quota: &growth, scores: []float64{99}, want: LevelOf(Growth)},
		{name: "quota wins without scores", quota: &growth, want: LevelOf(Growth)},
		{name: "empty quota tier falls back", quota: &empty, scores: []float64{81}, want: LevelOf(Scale)},
		{name: "no quota uses max", scores: []float64{60, 85}, want: LevelOf(Scale)},
		{name: "nothing known", want: Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.quota, tt.scores))
		})
	}
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier(" growth ")
	require.NoError(t, err)
	assert.Equal(t, Growth, got)

	_, err = ParseTier("Sin nivel")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestLevelJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Level `json:"a"`
		B Level `json:"b"`
	}{A: LevelOf(Scale)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"Scale","b":null}`, string(data))

	var l Level
	require.NoError(t, json.Unmarshal([]byte(`"Starter"`), &l))
	assert.True(t, l.Is(Starter))
	require.NoError(t, json.Unmarshal([]byte(`"Sin evaluar"`), &l))
	assert.False(t, l.Classified())
}
