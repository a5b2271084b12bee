package upload

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Namer derives storage names of the form base_identity_unixseconds.ext.
// Names only have second resolution: the same file uploaded twice by the same
// identity within one second maps to the same key and the later write wins.
type Namer struct {
	now func() time.Time
}

// NewNamer returns a Namer reading the given clock; nil means time.Now.
func NewNamer(now func() time.Time) *Namer {
	if now == nil {
		now = time.Now
	}
	return &Namer{now: now}
}

// Generate returns the unique storage name for original uploaded by identity.
func (n *Namer) Generate(original, identity string) string {
	base, ext := splitExt(original)
	var b strings.Builder
	b.Grow(len(original) + len(identity) + 14)
	b.WriteString(base)
	b.WriteByte('_')
	b.WriteString(keySafeIdentity(identity))
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(n.now().Unix(), 10))
	b.WriteString(ext)
	return b.String()
}

// keySafeIdentity lower-cases identity and replaces path separators and
// control characters with '-', so the generated name stays a single key segment.
func keySafeIdentity(identity string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '-'
		}
		return r
	}, strings.ToLower(identity))
}

// splitExt separates the extension of the final path element, dot included.
// Leading dots belong to the base, so ".env" has no extension.
func splitExt(name string) (base, ext string) {
	start := strings.LastIndexAny(name, `/\`) + 1
	elem := name[start:]
	dot := strings.LastIndexByte(elem, '.')
	if dot <= 0 || strings.Trim(elem[:dot], ".") == "" {
		return name, ""
	}
	return name[:start+dot], elem[dot:]
}
