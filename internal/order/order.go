// Package order defines the Order record the constructors emit and the
// Kind enum replacing the source's string tags, per spec 9's "Order
// triples vs. records" design note. Grounded on
// pkg/backtest/types.go's Order struct in the teacher, generalized from
// a plain (side, price, qty) struct to carry the full tag taxonomy.
package order

// Kind enumerates every order tag the constructors can emit. The
// constructors set Kind directly; String() gives the tag text used in
// fill records and client order IDs, and the exchange adapter and
// cmd/live classify orders by substrings of that text.
type Kind int

const (
	KindNone Kind = iota
	KindLongIEntry
	KindLongREntry
	KindLongPrimaryREntry
	KindLongPrimaryREntryAfterPartialClose
	KindLongSecondaryREntry
	KindLongNClose
	KindLongSClose
	KindShrtIEntry
	KindShrtREntry
	KindShrtPrimaryREntry
	KindShrtPrimaryREntryAfterPartialClose
	KindShrtSecondaryREntry
	KindShrtNClose
	KindShrtSClose
	KindLongBankruptcy
	KindShrtBankruptcy
)

func (k Kind) String() string {
	switch k {
	case KindLongIEntry:
		return "long_ientry"
	case KindLongREntry:
		return "long_rentry"
	case KindLongPrimaryREntry:
		return "long_primary_rentry"
	case KindLongPrimaryREntryAfterPartialClose:
		return "long_primary_rentry_after_partial_close"
	case KindLongSecondaryREntry:
		return "long_secondary_rentry"
	case KindLongNClose:
		return "long_nclose"
	case KindLongSClose:
		return "long_sclose"
	case KindShrtIEntry:
		return "shrt_ientry"
	case KindShrtREntry:
		return "shrt_rentry"
	case KindShrtPrimaryREntry:
		return "shrt_primary_rentry"
	case KindShrtPrimaryREntryAfterPartialClose:
		return "shrt_primary_rentry_after_partial_close"
	case KindShrtSecondaryREntry:
		return "shrt_secondary_rentry"
	case KindShrtNClose:
		return "shrt_nclose"
	case KindShrtSClose:
		return "shrt_sclose"
	case KindLongBankruptcy:
		return "long_bankruptcy"
	case KindShrtBankruptcy:
		return "shrt_bankruptcy"
	default:
		return ""
	}
}

// Order is the (qty, price, tag) triple from the source, promoted to a
// named record. Sign convention: long entry qty>0, long close qty<0;
// short entry qty<0, short close qty>0. A zero-value Order (Kind ==
// KindNone, Qty == 0, Price == 0) means "no order".
type Order struct {
	Qty   float64
	Price float64
	Kind  Kind
}

// None is the sentinel "no order" value.
var None = Order{}

// IsNone reports whether o is the "no order" sentinel.
func (o Order) IsNone() bool {
	return o.Kind == KindNone && o.Qty == 0 && o.Price == 0
}

// Eqf is the quadratic-plus-absolute polynomial feature:
// sum((v_i^2 - minus) * c_i.Quad + |v_i - minus| * c_i.Abs).
func Eqf(vals []float64, coeffs []Coeffs, minus float64) float64 {
	n := len(vals)
	if len(coeffs) < n {
		n = len(coeffs)
	}
	total := 0.0
	for i := 0; i < n; i++ {
		v := vals[i]
		total += (v*v-minus)*coeffs[i].Quad + absf(v-minus)*coeffs[i].Abs
	}
	return total
}

// Coeffs is a 2-column coefficient row; params.Coeffs is an alias of
// this type since order is the lower-level package both orders and
// scalp build on.
type Coeffs struct {
	Quad float64
	Abs  float64
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
