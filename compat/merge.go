package compat

// DeepMerge recursively merges src into dst and returns dst. Maps are
// merged, every other value from src replaces the one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = cloneValue(srcVal)
		}
	}
	return dst
}

// mergeExtend lays an extend value over a copy of the resolved base value
// of the same key. The base may be another key's memoized value.
func mergeExtend(base, ext any) any {
	extMap, ok := ext.(map[string]any)
	if !ok {
		return cloneValue(ext)
	}
	baseMap, ok := base.(map[string]any)
	if !ok {
		return cloneValue(extMap)
	}
	return DeepMerge(cloneMap(baseMap), extMap)
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}
