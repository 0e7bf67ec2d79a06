package translate

import "github.com/OpenDaL/ingestion-and-transformation/record"

// Disambiguate selects one scalar from a value that may be a scalar, an
// object, or a list of either.
//
// For a list, every element is scored: an object whose type tag (found
// under one of typeKeys) matches an entry of typePriority scores that
// entry's rank, anything else scores below all ranked entries. The
// highest-priority element that yields a usable scalar wins; ties keep the
// original order. For an object, keyPriority names candidate keys in
// priority order; the first present, non-empty value wins and is unwrapped
// recursively when it is itself an object. Scalars are returned as-is.
func Disambiguate(value any, keyPriority, typeKeys, typePriority []string) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return disambiguateList(v, keyPriority, typeKeys, typePriority)
	case map[string]any:
		return disambiguateObject(v, keyPriority, typeKeys, typePriority)
	default:
		if record.IsEmpty(v) {
			return nil, false
		}
		return v, true
	}
}

const unrankedScore = 1 << 30

func disambiguateList(list []any, keyPriority, typeKeys, typePriority []string) (any, bool) {
	type candidate struct {
		value any
		score int
	}
	var candidates []candidate
	ranked := false
	for _, item := range list {
		score := unrankedScore
		if obj, ok := record.AsObject(item); ok {
			if tag, ok := objectType(obj, typeKeys); ok {
				if rank := priorityRank(tag, typePriority); rank >= 0 {
					score = rank
				}
			}
		}
		resolved, ok := Disambiguate(item, keyPriority, typeKeys, typePriority)
		if !ok {
			continue
		}
		if score != unrankedScore {
			ranked = true
		}
		candidates = append(candidates, candidate{value: resolved, score: score})
	}
	if len(candidates) == 0 {
		return nil, false
	}
	if !ranked {
		return candidates[0].value, true
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		// Strict less keeps ties stable on original order.
		if c.score < best.score {
			best = c
		}
	}
	return best.value, true
}

func disambiguateObject(obj map[string]any, keyPriority, typeKeys, typePriority []string) (any, bool) {
	for _, key := range keyPriority {
		value, present := obj[key]
		if !present || record.IsEmpty(value) {
			continue
		}
		if nested, ok := record.AsObject(value); ok {
			if resolved, ok := disambiguateObject(nested, keyPriority, typeKeys, typePriority); ok {
				return resolved, true
			}
			continue
		}
		return value, true
	}
	return nil, false
}

// objectType reads an object's type tag from the first present typeKey.
func objectType(obj map[string]any, typeKeys []string) (string, bool) {
	for _, key := range typeKeys {
		if s, ok := record.AsString(obj[key]); ok {
			return s, true
		}
	}
	return "", false
}

func priorityRank(value string, priority []string) int {
	for i, p := range priority {
		if p == value {
			return i
		}
	}
	return -1
}
