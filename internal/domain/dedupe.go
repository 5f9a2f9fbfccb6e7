package domain

// Dedupe drops every record that is content-equal to an earlier one and
// keeps first occurrences in order.
func Dedupe(records []Record) []Record {
	result := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		digest := rec.Digest()
		if _, ok := seen[digest]; ok {
			continue
		}

		seen[digest] = struct{}{}
		result = append(result, rec)
	}

	return result
}
