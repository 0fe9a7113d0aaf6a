package telemetry

// Dedupe removes records whose identity key was already seen, keeping the
// first occurrence and preserving the relative order of survivors. The
// key spans the whole input, so identical events surfacing under two
// fetches of the same submission collapse into one row.
func Dedupe(records []Record) []Record {
	seen := make(map[Key]struct{}, len(records))
	unique := make([]Record, 0, len(records))

	for _, r := range records {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}

	return unique
}
