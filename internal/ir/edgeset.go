package ir

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxEdges is the largest query an EdgeSet can describe.
const MaxEdges = 64

// EdgeSet is a bit vector over edge ordinals. Bit i is set when the edge
// with ordinal i is a member.
type EdgeSet uint64

// SingleEdge returns the set containing only ordinal.
// Panics if ordinal is outside [0, MaxEdges).
func SingleEdge(ordinal int) EdgeSet {
	checkOrdinal(ordinal)
	return EdgeSet(1) << uint(ordinal)
}

// FullSet returns the set of ordinals 0..n-1.
func FullSet(n int) EdgeSet {
	if n < 0 || n > MaxEdges {
		panic(fmt.Sprintf("ir: edge count %d outside [0, %d]", n, MaxEdges))
	}
	if n == MaxEdges {
		return ^EdgeSet(0)
	}
	return EdgeSet(1)<<uint(n) - 1
}

// EdgeSetOf builds a set from explicit ordinals.
func EdgeSetOf(ordinals ...int) EdgeSet {
	var s EdgeSet
	for _, o := range ordinals {
		s = s.With(o)
	}
	return s
}

func checkOrdinal(ordinal int) {
	if ordinal < 0 || ordinal >= MaxEdges {
		panic(fmt.Sprintf("ir: edge ordinal %d outside [0, %d)", ordinal, MaxEdges))
	}
}

// Has reports membership of ordinal.
func (s EdgeSet) Has(ordinal int) bool {
	if ordinal < 0 || ordinal >= MaxEdges {
		return false
	}
	return s&(EdgeSet(1)<<uint(ordinal)) != 0
}

// With returns s plus ordinal.
func (s EdgeSet) With(ordinal int) EdgeSet {
	return s | SingleEdge(ordinal)
}

// Without returns s minus ordinal.
func (s EdgeSet) Without(ordinal int) EdgeSet {
	return s &^ SingleEdge(ordinal)
}

func (s EdgeSet) Union(o EdgeSet) EdgeSet     { return s | o }
func (s EdgeSet) Intersect(o EdgeSet) EdgeSet { return s & o }
func (s EdgeSet) Minus(o EdgeSet) EdgeSet     { return s &^ o }

// SubsetOf reports whether every member of s is in o.
func (s EdgeSet) SubsetOf(o EdgeSet) bool { return s&^o == 0 }

// Len returns the number of members.
func (s EdgeSet) Len() int { return bits.OnesCount64(uint64(s)) }

// IsEmpty reports whether the set has no members.
func (s EdgeSet) IsEmpty() bool { return s == 0 }

// Lowest returns the smallest member, or -1 for the empty set.
func (s EdgeSet) Lowest() int {
	if s == 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(s))
}

// Ordinals lists the members in ascending order.
func (s EdgeSet) Ordinals() []int {
	out := make([]int, 0, s.Len())
	for rest := s; rest != 0; rest &= rest - 1 {
		out = append(out, bits.TrailingZeros64(uint64(rest)))
	}
	return out
}

// String renders the set as "{0,2,3}".
func (s EdgeSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, o := range s.Ordinals() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(o))
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the set as an ascending array of ordinals.
func (s EdgeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ordinals())
}

// UnmarshalJSON decodes an array of ordinals.
func (s *EdgeSet) UnmarshalJSON(data []byte) error {
	var ordinals []int
	if err := json.Unmarshal(data, &ordinals); err != nil {
		return err
	}
	var out EdgeSet
	for _, o := range ordinals {
		if o < 0 || o >= MaxEdges {
			return fmt.Errorf("edge ordinal %d outside [0, %d)", o, MaxEdges)
		}
		out = out.With(o)
	}
	*s = out
	return nil
}
