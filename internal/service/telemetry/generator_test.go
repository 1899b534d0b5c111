package telemetry

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_DemoRanges(t *testing.T) {
	g := NewGeneratorWithSource(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		rows := g.Demo()
		require.Len(t, rows, 4)

		assert.Equal(t, "Battery", rows[0].Label)
		battery, err := strconv.Atoi(strings.TrimSuffix(rows[0].Value, "%"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, battery, 70)
		assert.LessOrEqual(t, battery, 99)

		assert.Equal(t, "Mode", rows[1].Label)
		assert.Equal(t, "Demo Ops", rows[1].Value)

		assert.Equal(t, "Channel", rows[2].Label)
		channel, err := strconv.Atoi(strings.TrimSuffix(rows[2].Value, " MHz"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, channel, 300)
		assert.LessOrEqual(t, channel, 339)

		assert.Equal(t, "Last Script", rows[3].Label)
		assert.Equal(t, "Signal Sweep", rows[3].Value)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGeneratorWithSource(rand.NewPCG(7, 7))
	b := NewGeneratorWithSource(rand.NewPCG(7, 7))
	assert.Equal(t, a.Demo(), b.Demo())
}
