//go:build !windows

package safety

// fold is the identity on Unix, where paths compare case-sensitively.
func fold(p string) string { return p }

// systemProtected is the built-in denylist of system directories that may
// never be deletion roots, nor contain one.
var systemProtected = []string{
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/root",
	"/sbin",
	"/sys",
	"/usr",
	"/System",
	"/Library",
	"/Applications",
}

// exactProtected entries are blocked only when named directly. /var and
// /home hold legitimate targets (caches, spools, per-user temp dirs) but
// must never be deleted wholesale themselves.
var exactProtected = []string{
	"/var",
	"/home",
}
