package domain

// IDPicker chooses the id of a record about to be inserted. used holds the
// ids already taken, including earlier records of the same batch.
type IDPicker func(rec App, used map[string]struct{}) string

// FreshIDs ignores any provided id.
func FreshIDs(newID func() string) IDPicker {
	return func(App, map[string]struct{}) string { return newID() }
}

// KeepIDs keeps a provided id unless it is empty or already used.
func KeepIDs(newID func() string) IDPicker {
	return func(rec App, used map[string]struct{}) string {
		if _, taken := used[rec.ID]; rec.ID != "" && !taken {
			return rec.ID
		}
		return newID()
	}
}

// Merge appends the records of recs whose directUrl is not in apps yet.
// The first occurrence of a directUrl wins; later ones are reported in
// skipped. apps is not modified.
func Merge(apps, recs []App, pick IDPicker) (out, added []App, skipped []string) {
	seen := URLSet(apps)
	used := make(map[string]struct{}, len(apps)+len(recs))
	for _, a := range apps {
		used[a.ID] = struct{}{}
	}

	out = CloneAll(apps)
	added = []App{}
	skipped = []string{}
	for _, rec := range recs {
		if _, dup := seen[rec.DirectURL]; dup {
			skipped = append(skipped, rec.DirectURL)
			continue
		}
		seen[rec.DirectURL] = struct{}{}
		rec.ID = pick(rec, used)
		used[rec.ID] = struct{}{}
		added = append(added, rec)
		out = append(out, rec)
	}
	return out, added, skipped
}

// URLTakenByOther reports whether directURL belongs to a record other than
// apps[self].
func URLTakenByOther(apps []App, self int, directURL string) bool {
	for j := range apps {
		if j != self && apps[j].DirectURL == directURL {
			return true
		}
	}
	return false
}
