package spectrum

import (
	"maps"
	"slices"
)

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMetadata(val)
	case map[string]string:
		return maps.Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	case []float64:
		return slices.Clone(val)
	case []string:
		return slices.Clone(val)
	case []int:
		return slices.Clone(val)
	default:
		return v
	}
}

func cloneRecord(r Record) Record {
	if r.Details != nil {
		r.Details = cloneMetadata(r.Details)
	}
	return r
}
