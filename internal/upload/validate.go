package upload

import (
	"strings"
)

const (
	MsgNoUploadGroups = "at least one upload group is required"
	msgBlankFiles     = "please select files to upload for "
	msgShapeConflict  = "conflicting upload group shape for "
)

// ValidationError carries every schema violation found in a submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid upload: " + strings.Join(e.Messages, "; ")
}

// Validate checks the name map before anything is uploaded. A non-empty
// result means the submission must be rejected as a whole.
func Validate(names *NameMap) []string {
	if names.Len() == 0 {
		return []string{MsgNoUploadGroups}
	}

	var errs []string
	var blank []string
	for _, f := range names.fields {
		for _, filename := range names.slot(f) {
			if strings.TrimSpace(filename) == "" {
				blank = append(blank, f.name)
				break
			}
		}
	}
	if len(blank) > 0 {
		errs = append(errs, msgBlankFiles+strings.Join(blank, ", "))
	}

	if len(names.conflicts) > 0 {
		errs = append(errs, msgShapeConflict+strings.Join(dedupe(names.conflicts), ", "))
	}
	return errs
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
