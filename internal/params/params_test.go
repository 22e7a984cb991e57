package params

import "testing"

func TestCoeffsIsOrderCoeffsAlias(t *testing.T) {
	var c Coeffs = Coeffs{Quad: 1, Abs: 2}
	sp := EmaSideParams{RPrcPBr: c}
	if sp.RPrcPBr.Quad != 1 || sp.RPrcPBr.Abs != 2 {
		t.Fatalf("RPrcPBr = %+v, want {1 2}", sp.RPrcPBr)
	}
}

func TestStrategyParamsDefaultKindIsEmaBand(t *testing.T) {
	var sp StrategyParams
	if sp.Kind != KindEmaBand {
		t.Fatalf("zero-value StrategyParams.Kind = %v, want KindEmaBand", sp.Kind)
	}
}
