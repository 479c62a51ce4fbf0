package recovery

import "reflect"

// mergeResults combines the results of two half-batch executions.
// Slices are concatenated; maps are deep-merged field by field with
// inner slices concatenated and later scalars winning. Anything else
// resolves to the later result.
func mergeResults(first, second any) any {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}

	if fm, ok := first.(map[string]any); ok {
		if sm, ok := second.(map[string]any); ok {
			return mergeMaps(fm, sm)
		}
	}

	fv := reflect.ValueOf(first)
	sv := reflect.ValueOf(second)
	if fv.Kind() == reflect.Slice && sv.Kind() == reflect.Slice && fv.Type() == sv.Type() {
		return reflect.AppendSlice(fv, sv).Interface()
	}

	return second
}

// mergeMaps deep-merges two maps without mutating either.
func mergeMaps(first, second map[string]any) map[string]any {
	merged := make(map[string]any, len(first)+len(second))
	for k, v := range first {
		merged[k] = v
	}

	for k, sv := range second {
		fv, exists := merged[k]
		if !exists {
			merged[k] = sv
			continue
		}
		merged[k] = mergeValues(fv, sv)
	}

	return merged
}

func mergeValues(first, second any) any {
	if fm, ok := first.(map[string]any); ok {
		if sm, ok := second.(map[string]any); ok {
			return mergeMaps(fm, sm)
		}
	}

	fv := reflect.ValueOf(first)
	sv := reflect.ValueOf(second)
	if fv.Kind() == reflect.Slice && sv.Kind() == reflect.Slice && fv.Type() == sv.Type() {
		return reflect.AppendSlice(fv, sv).Interface()
	}

	// scalar conflict: later result wins
	return second
}
