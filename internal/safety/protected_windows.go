//go:build windows

package safety

import "strings"

// fold lowercases p; Windows paths compare case-insensitively.
func fold(p string) string { return strings.ToLower(p) }

// systemProtected is the built-in denylist of system directories that may
// never be deletion roots, nor contain one.
var systemProtected = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData`,
	`C:\$Recycle.Bin`,
}

// exactProtected entries are blocked only when named directly. C:\Users
// must not be subtree-protected: paths inside user profiles, dependency
// caches above all, are exactly what this tool exists to delete.
var exactProtected = []string{
	`C:\Users`,
}
