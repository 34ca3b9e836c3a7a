package traversal

import "strings"

// compareValues orders property values for OrderBy. Numeric values compare
// on one axis regardless of width; otherwise values compare within their
// type, and mixed types order by a fixed type rank (bool < number < string)
// so the sort is total.
func compareValues(a, b any) int {
	ra, fa, sa, ba := classify(a)
	rb, fb, sb, bb := classify(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankBool:
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case rankNumber:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(sa, sb)
	default:
		return 0
	}
}

const (
	rankOther = iota
	rankBool
	rankNumber
	rankString
)

func classify(v any) (rank int, f float64, s string, b bool) {
	switch x := v.(type) {
	case bool:
		return rankBool, 0, "", x
	case int:
		return rankNumber, float64(x), "", false
	case int8:
		return rankNumber, float64(x), "", false
	case int16:
		return rankNumber, float64(x), "", false
	case int32:
		return rankNumber, float64(x), "", false
	case int64:
		return rankNumber, float64(x), "", false
	case uint:
		return rankNumber, float64(x), "", false
	case uint8:
		return rankNumber, float64(x), "", false
	case uint16:
		return rankNumber, float64(x), "", false
	case uint32:
		return rankNumber, float64(x), "", false
	case uint64:
		return rankNumber, float64(x), "", false
	case float32:
		return rankNumber, float64(x), "", false
	case float64:
		return rankNumber, x, "", false
	case string:
		return rankString, 0, x, false
	default:
		return rankOther, 0, "", false
	}
}
