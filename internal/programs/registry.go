package programs

import (
	"path/filepath"
	"strings"
)

// Entry associates a driver file extension with the program that runs it.
type Entry struct {
	Ext     string // without leading dot
	Program string
}

// known lists the supported driver languages in lookup order. Driver
// discovery probes <pod>.<ext> in this order, so the first match wins.
var known = []Entry{
	{Ext: "py", Program: "python"},
	{Ext: "ncl", Program: "ncl"},
	{Ext: "R", Program: "Rscript"},
}

var byExt = func() map[string]string {
	m := make(map[string]string, len(known))
	for _, e := range known {
		key := strings.ToLower(e.Ext)
		if _, dup := m[key]; dup {
			panic("programs: duplicate extension " + e.Ext)
		}
		m[key] = e.Program
	}
	return m
}()

// Lookup returns the program registered for ext. The match is
// case-insensitive and a leading dot is ignored.
func Lookup(ext string) (program string, ok bool) {
	program, ok = byExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return program, ok
}

// ForPath returns the program registered for the extension of path.
func ForPath(path string) (program, ext string, ok bool) {
	ext = strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", "", false
	}
	program, ok = Lookup(ext)
	return program, ext, ok
}

// Entries returns a copy of the registry in lookup order.
func Entries() []Entry {
	out := make([]Entry, len(known))
	copy(out, known)
	return out
}

// Available returns the registry as a map keyed by lower-case extension.
func Available() map[string]string {
	out := make(map[string]string, len(byExt))
	for k, v := range byExt {
		out[k] = v
	}
	return out
}
