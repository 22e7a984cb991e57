// Package params models the per-side, per-strategy configuration the
// order constructors read. The source passes coefficient matrices and
// per-side scalars as parallel length-2 arrays indexed by 0=long/1=short;
// per spec 9 "Dynamic tuples and side-indexed parameters" this is
// modeled as two explicit SideParams records inside a StrategyParams
// container instead of magic numeric indices. Grounded on
// config/config.go's flat-struct-plus-helpers style in the teacher.
package params

import "github.com/kasyap1234/gridcore/internal/order"

// Coeffs is a 2-column coefficient row used by the eqf polynomial
// feature: Coeffs{Quad, Abs} multiplies (v^2-m) and |v-m| respectively.
type Coeffs = order.Coeffs

// EmaSideParams holds the EMA-band strategy's per-side scalars and
// coefficient vectors (one Coeffs per EMA span).
type EmaSideParams struct {
	PBRStopLoss float64
	PBRLimit    float64

	IQtyConst float64
	IPrcConst float64
	RQtyConst float64
	RPrcConst float64
	MarkupConst float64

	IQtyMAr   []Coeffs
	IPrcMAr   []Coeffs
	RPrcPBr   Coeffs
	RQtyMAr   []Coeffs
	RPrcMAr   []Coeffs
	MarkupMAr []Coeffs
}

// EmaParams bundles both sides of the EMA-band strategy plus the EMA
// span configuration.
type EmaParams struct {
	Spans []float64 // in minutes
	Long  EmaSideParams
	Shrt  EmaSideParams
}

// ScalpSideParams holds the scalp/grid strategy's per-side parameters.
type ScalpSideParams struct {
	PrimaryIQtyPct           float64
	PrimaryDdownFactor       float64
	PrimaryGridSpacing       float64
	PrimarySpacingPBRCoeffs  Coeffs
	PrimaryPBRLimit          float64
	SecondaryIQtyPct         float64
	SecondaryDdownFactor     float64
	SecondaryGridSpacing     float64
	SecondarySpacingPBRCoeffs Coeffs
	SecondaryPBRLimit        float64
	MinMarkup                float64
	MarkupRange              float64
	NCloseOrders             int
}

// ScalpParams bundles both sides of the scalp/grid strategy.
type ScalpParams struct {
	Long ScalpSideParams
	Shrt ScalpSideParams
}

// Kind tags which strategy family a StrategyParams value carries, per
// spec 9's "Polymorphism over strategy family" note: Strategy =
// EmaBand(EmaParams) | Scalp(ScalpParams), modeled as a tagged variant
// rather than an interface hierarchy since the two families share no
// behavior beyond being dispatched by the simulator.
type Kind int

const (
	KindEmaBand Kind = iota
	KindScalp
)

// StrategyParams is the tagged variant the simulator dispatches on.
type StrategyParams struct {
	Kind  Kind
	Ema   EmaParams
	Scalp ScalpParams

	DoLong bool
	DoShrt bool
}
