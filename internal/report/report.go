// Package report records the outcome of validating each pod.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Status is the outcome of validating one pod for one case.
type Status string

const (
	// StatusReady means the pod could run with every required input.
	StatusReady Status = "ready"
	// StatusMissingData means required data files are absent; the pod
	// will not be executed.
	StatusMissingData Status = "missing_data"
	// StatusSkipped means the pod's configuration is invalid.
	StatusSkipped Status = "skipped"
)

// PodReport is the result of validating one pod against one case.
type PodReport struct {
	Case          string            `json:"case_name"`
	Pod           string            `json:"pod_name"`
	Status        Status            `json:"status"`
	ErrorKind     string            `json:"error_kind,omitempty"`
	Error         string            `json:"error,omitempty"`
	Driver        string            `json:"driver,omitempty"`
	Program       string            `json:"program,omitempty"`
	FoundFiles    []string          `json:"found_files"`
	MissingFiles  []string          `json:"missing_files"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	Diagnostics   []string          `json:"diagnostics,omitempty"`
	CheckedAt     time.Time         `json:"checked_at"`
}

// Summary counts reports by status.
type Summary struct {
	Ready       int
	MissingData int
	Skipped     int
}

// Summarize counts reports by status.
func Summarize(reports []PodReport) Summary {
	var s Summary
	for _, r := range reports {
		switch r.Status {
		case StatusReady:
			s.Ready++
		case StatusMissingData:
			s.MissingData++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// OK reports whether every pod is ready.
func (s Summary) OK() bool {
	return s.MissingData == 0 && s.Skipped == 0
}

// WriteText prints a human-readable listing of reports.
func WriteText(w io.Writer, reports []PodReport) error {
	for _, r := range reports {
		line := fmt.Sprintf("%-10s %s/%s", r.Status, r.Case, r.Pod)
		if r.Driver != "" {
			line += fmt.Sprintf("  %s %s", r.Program, r.Driver)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		var details []string
		if r.Error != "" {
			details = append(details, "error: "+r.Error)
		}
		for _, d := range r.Diagnostics {
			details = append(details, "syntax: "+d)
		}
		for _, f := range r.MissingFiles {
			details = append(details, "missing: "+f)
		}
		for v, alt := range r.Substitutions {
			details = append(details, fmt.Sprintf("alternate: %s -> %s", v, alt))
		}
		if len(details) > 0 {
			if _, err := fmt.Fprintln(w, "    "+strings.Join(details, "\n    ")); err != nil {
				return err
			}
		}
	}
	s := Summarize(reports)
	_, err := fmt.Fprintf(w, "%d ready, %d missing data, %d skipped\n", s.Ready, s.MissingData, s.Skipped)
	return err
}
