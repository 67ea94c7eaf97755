package detector

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gregor-nelson/spx/internal/history"
	"github.com/gregor-nelson/spx/internal/storage"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		VolumeFloor:    100,
		NotionalFloor:  decimal.NewFromInt(100_000),
		DeltaThreshold: 200,
		Multiplier:     5,
		DormancyFloor:  100,
	}
}

func snapshot(ticker string, volume int64, premium float64) storage.IntradaySnapshot {
	price := decimal.NewFromFloat(premium)
	return storage.IntradaySnapshot{
		Ticker:           ticker,
		VolumeCumulative: volume,
		ClosePrice:       &price,
	}
}

func TestDeltaFlag(t *testing.T) {
	d := New(defaultThresholds())

	// 4700 vs 4000 = +700 > 200 absolute threshold.
	res := d.Evaluate(snapshot("X", 4700, 12.5), history.Reference{Volume: 4000, Source: history.SourceYesterdayEOD})
	assert.True(t, res.Flagged())
	assert.Contains(t, res.Flags, FlagDelta)
	assert.NotContains(t, res.Flags, FlagMultiplier)
}

func TestMultiplierFlag(t *testing.T) {
	d := New(defaultThresholds())

	// 3000 vs 500: 6x over a nonzero reference, and also +2500 delta.
	res := d.Evaluate(snapshot("X", 3000, 20), history.Reference{Volume: 500, Source: history.SourceYesterdayHour})
	assert.Contains(t, res.Flags, FlagMultiplier)
	assert.Contains(t, res.Flags, FlagDelta)
}

func TestMultiplierRequiresNonZeroReference(t *testing.T) {
	d := New(defaultThresholds())

	res := d.Evaluate(snapshot("X", 3000, 20), history.Reference{Volume: 0, Source: history.SourceYesterdayEOD})
	assert.NotContains(t, res.Flags, FlagMultiplier)
	assert.Contains(t, res.Flags, FlagDormancy)
}

func TestDormancyFlag(t *testing.T) {
	d := New(defaultThresholds())

	res := d.Evaluate(snapshot("X", 500, 50), history.Reference{Volume: 0, Source: history.SourceTwoDaysAgoEOD})
	assert.Contains(t, res.Flags, FlagDormancy)
}

func TestNoHistorySkipsAllFlags(t *testing.T) {
	d := New(defaultThresholds())

	// Zero prior observations anywhere: volume 500 today must not produce a
	// dormancy flag, nor anything else.
	res := d.Evaluate(snapshot("X", 500, 50), history.Reference{Source: history.SourceNone})
	assert.False(t, res.Flagged())
}

func TestVolumeFloorGate(t *testing.T) {
	d := New(defaultThresholds())

	res := d.Evaluate(snapshot("X", 50, 1000), history.Reference{Volume: 0, Source: history.SourceYesterdayEOD})
	assert.False(t, res.Flagged())
}

func TestNotionalFloorGate(t *testing.T) {
	d := New(defaultThresholds())

	// 300 contracts at $1.00 premium = $30,000 notional, under the floor
	// even though the volume jump alone would flag.
	res := d.Evaluate(snapshot("X", 300, 1.0), history.Reference{Volume: 0, Source: history.SourceYesterdayEOD})
	assert.False(t, res.Flagged())
}

func TestMissingPremiumSuppresses(t *testing.T) {
	d := New(defaultThresholds())

	snap := storage.IntradaySnapshot{Ticker: "X", VolumeCumulative: 5000}
	res := d.Evaluate(snap, history.Reference{Volume: 100, Source: history.SourceYesterdayEOD})
	assert.False(t, res.Flagged())
	assert.True(t, res.Notional.IsZero())
}

func TestNotionalComputation(t *testing.T) {
	d := New(defaultThresholds())

	res := d.Evaluate(snapshot("X", 400, 12.5), history.Reference{Volume: 100, Source: history.SourceYesterdayEOD})
	// 400 × 12.50 × 100 = 500,000
	assert.True(t, res.Notional.Equal(decimal.NewFromInt(500_000)))
}

func TestFlagStrings(t *testing.T) {
	res := Result{Flags: []Flag{FlagDelta, FlagDormancy}}
	assert.Equal(t, []string{"delta", "dormancy"}, res.FlagStrings())
}
