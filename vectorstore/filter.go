package vectorstore

import "fmt"

// FilterOp is a payload predicate operator.
type FilterOp int

const (
	// OpEq matches payloads whose field equals the value.
	OpEq FilterOp = iota
	// OpNeq matches payloads whose field differs from the value.
	OpNeq
	// OpGte matches payloads whose field is >= the value.
	OpGte
	// OpLte matches payloads whose field is <= the value.
	OpLte
)

func (op FilterOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Filter restricts a search to records whose payload field satisfies
// the predicate. How values compare (and which operators are
// available) is store-specific; a store that cannot evaluate a filter
// returns core.ErrUnsupportedFilter.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

// Eq builds an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Neq builds an inequality filter.
func Neq(field, value string) Filter {
	return Filter{Field: field, Op: OpNeq, Value: value}
}

// Gte builds a greater-or-equal range filter.
func Gte(field, value string) Filter {
	return Filter{Field: field, Op: OpGte, Value: value}
}

// Lte builds a less-or-equal range filter.
func Lte(field, value string) Filter {
	return Filter{Field: field, Op: OpLte, Value: value}
}
