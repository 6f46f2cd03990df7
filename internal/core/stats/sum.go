package stats

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Sum keeps an exact decimal total. The zero value is an empty sum.
type Sum struct {
	total decimal.Decimal
	n     uint64
}

func NewSum() *Sum { return &Sum{} }

// SumOf adds every value of seq.
func SumOf(seq iter.Seq[decimal.Decimal]) *Sum {
	s := NewSum()
	for v := range seq {
		s.Add(v)
	}
	return s
}

func (s *Sum) Add(v decimal.Decimal) {
	s.total = s.total.Add(v)
	s.n++
}

// Total returns the exact sum; it is zero for an empty Sum.
func (s *Sum) Total() decimal.Decimal { return s.total }

func (s *Sum) Len() uint64 { return s.n }

func (s *Sum) Merge(other *Sum) {
	if other == nil {
		return
	}
	s.total = s.total.Add(other.total)
	s.n += other.n
}
