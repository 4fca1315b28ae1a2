package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Params holds named numeric strategy parameters.
type Params map[string]decimal.Decimal

// ParamsFromInts builds Params from integer values.
func ParamsFromInts(m map[string]int) Params {
	p := make(Params, len(m))
	for k, v := range m {
		p[k] = decimal.NewFromInt(int64(v))
	}
	return p
}

// Int returns p[name] truncated to an int, or def when unset.
func (p Params) Int(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	return int(v.IntPart())
}

// Decimal returns p[name], or def when unset.
func (p Params) Decimal(name string, def decimal.Decimal) decimal.Decimal {
	v, ok := p[name]
	if !ok {
		return def
	}
	return v
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String renders p as "fast=5 slow=20" in key order.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, p[k]))
	}
	return strings.Join(parts, " ")
}
