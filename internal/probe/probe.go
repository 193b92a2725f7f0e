// Package probe provides the filesystem and executable-search capabilities
// the environment manager is built on. Both are interfaces so tests can
// substitute an in-memory filesystem or canned answers.
package probe

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sys/unix"
)

// PathProber answers existence questions about paths.
type PathProber interface {
	// Exists reports whether anything exists at path.
	Exists(path string) bool
	// IsFile reports whether path exists and is not a directory.
	IsFile(path string) bool
}

// ExecutableFinder locates programs the way a shell PATH search does.
type ExecutableFinder interface {
	// FindExecutable returns the resolved location of name and whether
	// it was found.
	FindExecutable(name string) (string, bool)
}

// FSProber implements PathProber over a billy filesystem.
type FSProber struct {
	fs billy.Filesystem
}

// NewFSProber wraps fs.
func NewFSProber(fs billy.Filesystem) *FSProber {
	return &FSProber{fs: fs}
}

// HostFS returns the host filesystem rooted at "/". Paths given to it
// must be absolute.
func HostFS() billy.Filesystem {
	return osfs.New("/")
}

// NewOSProber probes the host filesystem. Paths must be absolute.
func NewOSProber() *FSProber {
	return NewFSProber(HostFS())
}

// Exists implements PathProber.
func (p *FSProber) Exists(path string) bool {
	_, err := p.fs.Stat(path)
	return err == nil
}

// IsFile implements PathProber.
func (p *FSProber) IsFile(path string) bool {
	info, err := p.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// ProberFunc adapts a function to PathProber. Both methods call f.
type ProberFunc func(path string) bool

// Exists implements PathProber.
func (f ProberFunc) Exists(path string) bool { return f(path) }

// IsFile implements PathProber.
func (f ProberFunc) IsFile(path string) bool { return f(path) }

// PathFinder searches a list of directories on a billy filesystem for
// files with any execute bit set.
type PathFinder struct {
	fs   billy.Filesystem
	dirs []string
}

// NewPathFinder searches dirs, in order, on fs.
func NewPathFinder(fs billy.Filesystem, dirs []string) *PathFinder {
	return &PathFinder{fs: fs, dirs: dirs}
}

// SearchPath splits a PATH-style list.
func SearchPath(list string) []string {
	return filepath.SplitList(list)
}

// FindExecutable implements ExecutableFinder. Names containing a path
// separator are checked directly and not searched for.
func (f *PathFinder) FindExecutable(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.ContainsRune(name, '/') {
		return name, f.isExecutable(name)
	}
	for _, dir := range f.dirs {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if f.isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (f *PathFinder) isExecutable(path string) bool {
	info, err := f.fs.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// SystemFinder searches the host PATH.
type SystemFinder struct{}

// FindExecutable implements ExecutableFinder.
func (SystemFinder) FindExecutable(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			return "", false
		}
		if unix.Access(name, unix.X_OK) != nil {
			return "", false
		}
		return name, true
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// FinderFunc adapts a predicate to ExecutableFinder; the reported location
// is the name itself.
type FinderFunc func(name string) bool

// FindExecutable implements ExecutableFinder.
func (f FinderFunc) FindExecutable(name string) (string, bool) {
	if !f(name) {
		return "", false
	}
	return name, true
}
