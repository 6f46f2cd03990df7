package aggregation

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ExtractDecimal pulls a numeric value from a record's Data map by field name.
// Returns false if the field is missing, empty, or not a recognized numeric
// type: absent values are skipped by the aggregators, never counted as zero.
// JSON numbers decode to float64 (or json.Number with UseNumber); both are
// converted to an exact decimal representation.
func ExtractDecimal(data map[string]interface{}, field string) (decimal.Decimal, bool) {
	if field == "" {
		return decimal.Zero, false
	}
	v, ok := data[field]
	if !ok {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt32(val), true
	case json.Number:
		return parseDecimal(val.String())
	case string:
		return parseDecimal(val)
	}
	return decimal.Zero, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
