package translate

import "github.com/OpenDaL/ingestion-and-transformation/record"

// Resolve iterates fieldNames in declared order and returns the first field
// present in the record whose value is non-empty, together with the field
// name it came from. It never recurses into nested keys. Absence is a valid
// outcome, not an error.
func Resolve(rec record.Structured, fieldNames []string) (string, any, bool) {
	for _, name := range fieldNames {
		value, present := rec[name]
		if !present || record.IsEmpty(value) {
			continue
		}
		return name, value, true
	}
	return "", nil, false
}

// fieldsAfter returns the candidate fields following name in declared
// order. Translators that fall through on a failed candidate resume
// resolution from here.
func fieldsAfter(fields []string, name string) []string {
	for i, f := range fields {
		if f == name {
			return fields[i+1:]
		}
	}
	return nil
}

// unwrapSingle treats a single-element list as its sole element. Whether a
// translator unwraps is its own choice; resolution itself never does.
func unwrapSingle(v any) any {
	if list, ok := record.AsList(v); ok && len(list) == 1 {
		return list[0]
	}
	return v
}
