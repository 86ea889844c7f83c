package subjectmerge

// UnifyColumns computes the shared metric column order for records given in
// roster order. Absent subjects are nil entries.
//
// The first record with a non-empty key order seeds the result; keys seen
// later are appended in first-discovery order. Keys that only exist in a
// record's value map follow that record's ordered keys, sorted by name.
func UnifyColumns(records []*Record) []string {
	var cols []string
	seen := make(map[string]struct{})
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		cols = append(cols, key)
	}
	for _, rec := range records {
		if rec != nil && len(rec.Keys) > 0 {
			for _, k := range rec.Keys {
				add(k)
			}
			break
		}
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, k := range rec.Keys {
			add(k)
		}
		for _, k := range rec.orphanKeys() {
			add(k)
		}
	}
	return cols
}
