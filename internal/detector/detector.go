// Package detector applies threshold rules to current volume against a
// historical reference, producing a closed set of anomaly flags.
package detector

import (
	"github.com/shopspring/decimal"

	"github.com/gregor-nelson/spx/internal/history"
	"github.com/gregor-nelson/spx/internal/storage"
)

// Flag names one triggered anomaly condition. The set is closed; a contract
// may carry several flags at once.
type Flag string

const (
	// FlagDelta fires when volume grew by more than the absolute threshold.
	FlagDelta Flag = "delta"
	// FlagMultiplier fires when volume exceeds the reference times the
	// configured multiplier (reference must be nonzero).
	FlagMultiplier Flag = "multiplier"
	// FlagDormancy fires when a contract with zero reference volume
	// suddenly trades above the dormancy floor.
	FlagDormancy Flag = "dormancy"
)

// contractMultiplier converts premium to dollar notional (100 shares per
// contract).
var contractMultiplier = decimal.NewFromInt(100)

// Thresholds configure the detector. Values are tuned by observation, not
// derived statistically.
type Thresholds struct {
	VolumeFloor    int64
	NotionalFloor  decimal.Decimal
	DeltaThreshold int64
	Multiplier     int64
	DormancyFloor  int64
}

// Result describes one evaluated contract. Flags is empty when nothing
// fired.
type Result struct {
	Ticker          string
	Flags           []Flag
	CurrentVolume   int64
	ReferenceVolume int64
	ReferenceSource history.Source
	Notional        decimal.Decimal
}

// Flagged reports whether any condition fired.
func (r Result) Flagged() bool {
	return len(r.Flags) > 0
}

// FlagStrings converts the flag set for persistence.
func (r Result) FlagStrings() []string {
	out := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		out[i] = string(f)
	}
	return out
}

// Detector evaluates snapshots against thresholds.
type Detector struct {
	thresholds Thresholds
}

// New constructs a Detector.
func New(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// Evaluate applies the gates and threshold rules to one contract.
//
// Low-activity noise is suppressed first: contracts below the volume floor
// or the notional floor never flag, regardless of percentage change. When
// the comparator found no history at all, every check is skipped. A first
// observation is insufficient history, not a contract waking from dormancy.
func (d *Detector) Evaluate(snap storage.IntradaySnapshot, ref history.Reference) Result {
	result := Result{
		Ticker:          snap.Ticker,
		CurrentVolume:   snap.VolumeCumulative,
		ReferenceVolume: ref.Volume,
		ReferenceSource: ref.Source,
		Notional:        notionalOf(snap),
	}

	if snap.VolumeCumulative < d.thresholds.VolumeFloor {
		return result
	}
	if result.Notional.LessThan(d.thresholds.NotionalFloor) {
		return result
	}
	if !ref.Found() {
		return result
	}

	volume := snap.VolumeCumulative
	reference := ref.Volume

	if volume-reference > d.thresholds.DeltaThreshold {
		result.Flags = append(result.Flags, FlagDelta)
	}
	if reference > 0 && volume > reference*d.thresholds.Multiplier {
		result.Flags = append(result.Flags, FlagMultiplier)
	}
	if reference == 0 && volume > d.thresholds.DormancyFloor {
		result.Flags = append(result.Flags, FlagDormancy)
	}

	return result
}

// notionalOf computes volume × premium × contract multiplier. A missing
// premium yields zero notional, which the floor gate then suppresses.
func notionalOf(snap storage.IntradaySnapshot) decimal.Decimal {
	if snap.ClosePrice == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(snap.VolumeCumulative).Mul(*snap.ClosePrice).Mul(contractMultiplier)
}
