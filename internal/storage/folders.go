package storage

import "strings"

// CategoryUserFile is the only file category this service defines.
const CategoryUserFile = "user_file"

// Folders maps a file category to the key prefix its objects live under.
type Folders map[string]string

// NewFolders normalises category names and strips surrounding slashes from
// the folder paths.
func NewFolders(raw map[string]string) Folders {
	f := make(Folders, len(raw))
	for category, folder := range raw {
		folder = strings.Trim(strings.TrimSpace(folder), "/")
		if folder == "" {
			continue
		}
		f[NormalizeCategory(category)] = folder
	}
	return f
}

// NormalizeCategory makes "User File", "user file" and "user_file" equivalent.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	return strings.Join(strings.Fields(category), "_")
}

// Resolve returns the folder for category, or "" when the category is unknown.
func (f Folders) Resolve(category string) string {
	return f[NormalizeCategory(category)]
}

// ObjectKey joins folder and name. It returns "" (an invalid key) when
// either part is missing.
func ObjectKey(folder, name string) string {
	if folder == "" || strings.TrimSpace(name) == "" {
		return ""
	}
	return folder + "/" + name
}
