package upload

import "strings"

// Normalize splits a submission into the name map and the list of distinct
// files to upload. Files are deduplicated by original filename; the first
// occurrence wins and later ones share its upload result.
func Normalize(sub Submission) (*NameMap, []File) {
	names := newNameMap()
	var unique []File
	seen := make(map[string]struct{})

	for _, field := range sub {
		outer, inner, nested := splitFieldName(field.Name)

		filenames := make([]string, len(field.Files))
		for i, f := range field.Files {
			filenames[i] = f.Filename
		}
		if !names.add(field.Name, outer, inner, nested, filenames) {
			continue
		}

		for _, f := range field.Files {
			if _, dup := seen[f.Filename]; dup {
				continue
			}
			seen[f.Filename] = struct{}{}
			unique = append(unique, f)
		}
	}
	return names, unique
}

// splitFieldName parses "outer[inner]". Only one level of nesting exists, so
// everything between the first '[' and the trailing ']' is the inner key.
func splitFieldName(name string) (outer, inner string, nested bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return name, "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}
