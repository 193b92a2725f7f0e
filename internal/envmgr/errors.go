package envmgr

import (
	"errors"
	"fmt"
)

// ErrPodConfig matches every pod configuration error returned by
// ResolvePodDriver. Callers skip the pod and continue.
var ErrPodConfig = errors.New("pod configuration error")

// Error kinds, as recorded in reports.
const (
	KindDriverNotFound        = "driver_not_found"
	KindUnrecognizedExtension = "unrecognized_extension"
	KindProgramNotFound       = "program_not_found"
)

// KindOf returns the kind of a pod configuration error, or "" if err is
// not one.
func KindOf(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// DriverNotFoundError is returned when no driver file exists for a pod.
// Path is empty when discovery by convention found nothing.
type DriverNotFoundError struct {
	Pod  string
	Dir  string
	Path string
}

func (e *DriverNotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pod %s: no driver <name>.<ext> found in %s", e.Pod, e.Dir)
	}
	return fmt.Sprintf("pod %s: driver %s does not exist", e.Pod, e.Path)
}

func (e *DriverNotFoundError) Kind() string       { return KindDriverNotFound }
func (e *DriverNotFoundError) Is(err error) bool { return err == ErrPodConfig }

// UnrecognizedDriverExtensionError is returned when the driver's extension
// has no registered program and none was given explicitly.
type UnrecognizedDriverExtensionError struct {
	Pod    string
	Driver string
	Ext    string
}

func (e *UnrecognizedDriverExtensionError) Error() string {
	return fmt.Sprintf("pod %s: no program registered for extension %q of driver %s", e.Pod, e.Ext, e.Driver)
}

func (e *UnrecognizedDriverExtensionError) Kind() string       { return KindUnrecognizedExtension }
func (e *UnrecognizedDriverExtensionError) Is(err error) bool { return err == ErrPodConfig }

// ProgramNotFoundError is returned when the interpreter is not on the
// executable search path.
type ProgramNotFoundError struct {
	Pod     string
	Program string
}

func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("pod %s: program %s not found on search path", e.Pod, e.Program)
}

func (e *ProgramNotFoundError) Kind() string       { return KindProgramNotFound }
func (e *ProgramNotFoundError) Is(err error) bool { return err == ErrPodConfig }
