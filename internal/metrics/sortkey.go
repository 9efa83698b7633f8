package metrics

import (
	"cmp"
	"strings"
)

// SortKey selects the column a snapshot is ordered by.
type SortKey string

const (
	SortByFunction SortKey = "FUNCTION"
	SortByCalls    SortKey = "CALLS"
	SortByAverage  SortKey = "AVG"
	SortByMax      SortKey = "MAX"
	SortByMin      SortKey = "MIN"
	SortByTotal    SortKey = "TOTAL"
)

// SortKeys lists the recognized keys in column order.
var SortKeys = []SortKey{SortByFunction, SortByCalls, SortByAverage, SortByMax, SortByMin, SortByTotal}

var sortKeyAliases = map[string]SortKey{
	"function":     SortByFunction,
	"name":         SortByFunction,
	"identity":     SortByFunction,
	"calls":        SortByCalls,
	"count":        SortByCalls,
	"avg":          SortByAverage,
	"average":      SortByAverage,
	"avg lat (ms)": SortByAverage,
	"max":          SortByMax,
	"max lat (ms)": SortByMax,
	"min":          SortByMin,
	"min lat (ms)": SortByMin,
	"total":        SortByTotal,
	"sum":          SortByTotal,
	"tot lat (ms)": SortByTotal,
}

// ParseSortKey resolves a key name, case-insensitively. Column titles such as
// "AVG LAT (ms)" and short aliases such as "count" are accepted.
func ParseSortKey(s string) (SortKey, error) {
	if key, ok := sortKeyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return key, nil
	}
	return "", unknownSortKey(s)
}

// Valid reports whether k is one of SortKeys.
func (k SortKey) Valid() bool {
	switch k {
	case SortByFunction, SortByCalls, SortByAverage, SortByMax, SortByMin, SortByTotal:
		return true
	}
	return false
}

// Next returns the key following k in column order, wrapping around.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortKeys[0]
}

func (k SortKey) compare(a, b Entry) int {
	switch k {
	case SortByFunction:
		return strings.Compare(a.Identity, b.Identity)
	case SortByCalls:
		return cmp.Compare(a.Stat.Count, b.Stat.Count)
	case SortByAverage:
		return cmp.Compare(a.Stat.Average(), b.Stat.Average())
	case SortByMax:
		return cmp.Compare(a.Stat.Max, b.Stat.Max)
	case SortByMin:
		return cmp.Compare(a.Stat.Min, b.Stat.Min)
	case SortByTotal:
		return cmp.Compare(a.Stat.Sum, b.Stat.Sum)
	}
	return 0
}

func sortKeyNames() []string {
	names := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		names[i] = string(k)
	}
	return names
}
