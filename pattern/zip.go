package pattern

import (
	"fmt"
	"slices"

	Mt "github.com/maroda/madrigal/types"
)

// Column is one parameter's values, one per step.
// nil entries leave that parameter unset on that step.
type Column struct {
	Param  string
	Values []any
}

// Zip builds one sequence step per index, each step carrying every
// column's value at that index. Columns must all be the same length:
// a short column is an error, never truncated or wrapped.
func Zip(cols ...Column) (ControlPattern, error) {
	if len(cols) == 0 {
		return Silence[Mt.Controls](), nil
	}

	n := len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != n {
			return ControlPattern{}, fmt.Errorf("column %q has %d values, %q has %d: %w",
				c.Param, len(c.Values), cols[0].Param, n, ErrLengthMismatch)
		}
	}

	rows := make([]Mt.Controls, n)
	for i := range rows {
		for _, c := range cols {
			row, err := SetParam(rows[i], c.Param, c.Values[i])
			if err != nil {
				return ControlPattern{}, fmt.Errorf("step %d: %w", i, err)
			}
			rows[i] = row
		}
	}
	return Seq(rows...), nil
}

// FromRecords builds a sequence from one record per step,
// {n: 0, s: "bd", gain: 1}. Keys are applied in sorted order.
func FromRecords(records []map[string]any) (ControlPattern, error) {
	rows := make([]Mt.Controls, len(records))
	for i, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			row, err := SetParam(rows[i], k, rec[k])
			if err != nil {
				return ControlPattern{}, fmt.Errorf("record %d: %w", i, err)
			}
			rows[i] = row
		}
	}
	return Seq(rows...), nil
}
