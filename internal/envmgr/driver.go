package envmgr

import (
	"path/filepath"

	"github.com/agentic-research/mdtf/api"
	"github.com/agentic-research/mdtf/internal/programs"
)

// ResolvePodDriver fills in pod.Driver and pod.Program and checks that
// both can be found. An empty Driver is discovered as <Dir>/<Name>.<ext>
// over the registered extensions, in registry order. A relative Driver is
// joined to Dir. An explicit Program is never replaced, only verified.
//
// On error pod is left unchanged and the error is one of
// *DriverNotFoundError, *UnrecognizedDriverExtensionError or
// *ProgramNotFoundError. Calling it again on a resolved pod is a no-op.
func (m *Manager) ResolvePodDriver(pod *api.Pod) error {
	resolved := *pod

	if resolved.Driver == "" {
		driver, program, ok := m.discoverDriver(resolved.Name, resolved.Dir)
		if !ok {
			return &DriverNotFoundError{Pod: pod.Name, Dir: pod.Dir}
		}
		resolved.Driver = driver
		if resolved.Program == "" {
			resolved.Program = program
		}
	}

	if !filepath.IsAbs(resolved.Driver) {
		resolved.Driver = filepath.Join(resolved.Dir, resolved.Driver)
	}

	if resolved.Program == "" {
		program, ext, ok := programs.ForPath(resolved.Driver)
		if !ok {
			return &UnrecognizedDriverExtensionError{Pod: pod.Name, Driver: resolved.Driver, Ext: ext}
		}
		resolved.Program = program
	}

	if !m.paths.IsFile(resolved.Driver) {
		return &DriverNotFoundError{Pod: pod.Name, Dir: pod.Dir, Path: resolved.Driver}
	}
	location, ok := m.execs.FindExecutable(resolved.Program)
	if !ok {
		return &ProgramNotFoundError{Pod: pod.Name, Program: resolved.Program}
	}

	m.log.Debug("resolved pod driver",
		"pod", resolved.Name, "driver", resolved.Driver,
		"program", resolved.Program, "program_path", location)
	*pod = resolved
	return nil
}

func (m *Manager) discoverDriver(name, dir string) (driver, program string, ok bool) {
	for _, e := range programs.Entries() {
		candidate := filepath.Join(dir, name+"."+e.Ext)
		if m.paths.IsFile(candidate) {
			return candidate, e.Program, true
		}
	}
	return "", "", false
}
