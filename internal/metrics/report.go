package metrics

// Row is one display line of a snapshot. Latency fields are expressed in Unit.
type Row struct {
	Function string  `json:"function" yaml:"function"`
	Calls    int64   `json:"calls" yaml:"calls"`
	Unit     string  `json:"unit" yaml:"unit"`
	Avg      float64 `json:"avg" yaml:"avg"`
	Max      float64 `json:"max" yaml:"max"`
	Min      float64 `json:"min" yaml:"min"`
	Total    float64 `json:"total" yaml:"total"`
}

// GetStats returns the live registry for direct inspection. It exists so
// read-only callers do not depend on how the registry was constructed.
func GetStats(reg *Registry) *Registry {
	if reg == nil {
		return Default
	}
	return reg
}

// FormatSnapshot builds display rows from a sorted snapshot of reg. When
// clear is true the registry is reset in the same critical section as the
// read. An unknown key fails without touching the registry.
func FormatSnapshot(reg *Registry, key SortKey, reverse, clear bool) ([]Row, error) {
	reg = GetStats(reg)
	var (
		entries []Entry
		err     error
	)
	if clear {
		entries, err = reg.SnapshotAndClear(key, reverse)
	} else {
		entries, err = reg.Snapshot(key, reverse)
	}
	if err != nil {
		return nil, err
	}
	return Rows(entries), nil
}

// Rows converts entries to display rows without re-sorting them.
func Rows(entries []Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, RowOf(e))
	}
	return rows
}

// RowOf converts the latency fields of e into its display unit.
func RowOf(e Entry) Row {
	u := e.Stat.Unit
	return Row{
		Function: e.Identity,
		Calls:    e.Stat.Count,
		Unit:     u.Label,
		Avg:      u.Convert(e.Stat.Average()),
		Max:      u.Convert(float64(e.Stat.Max)),
		Min:      u.Convert(float64(e.Stat.Min)),
		Total:    u.Convert(float64(e.Stat.Sum)),
	}
}
