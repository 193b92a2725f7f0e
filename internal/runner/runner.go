// Package runner validates every pod of a run configuration against every
// case, skipping pods whose configuration is broken and reporting the rest.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/mdtf/api"
	"github.com/agentic-research/mdtf/internal/drivercheck"
	"github.com/agentic-research/mdtf/internal/envmgr"
	"github.com/agentic-research/mdtf/internal/podconfig"
	"github.com/agentic-research/mdtf/internal/report"
)

// Error kinds recorded for failures outside the driver resolver.
const (
	KindSettings     = "settings"
	KindDriverSyntax = "driver_syntax"
)

// Sink receives each report as soon as it is produced.
type Sink interface {
	Add(r report.PodReport) error
}

// Runner drives validation of a run configuration.
type Runner struct {
	Config  *api.RunConfig
	Manager *envmgr.Manager
	Loader  *podconfig.Loader
	Checker *drivercheck.Checker
	Sink    Sink
	Logger  *slog.Logger
	Clock   func() time.Time
}

// NewRunner reads pod settings and drivers from fs and resolves with mgr.
func NewRunner(cfg *api.RunConfig, mgr *envmgr.Manager, fs billy.Filesystem) *Runner {
	return &Runner{
		Config:  cfg,
		Manager: mgr,
		Loader:  podconfig.NewLoader(fs),
		Checker: drivercheck.NewChecker(fs),
		Logger:  slog.Default(),
		Clock:   time.Now,
	}
}

// Run validates every pod for every case. Per-pod failures become
// reports; only configuration-wide problems (conventions, sink) return
// an error.
func (r *Runner) Run(ctx context.Context) ([]report.PodReport, error) {
	var conventions *podconfig.Conventions
	if r.Config.ConventionsFile != "" {
		var err error
		if conventions, err = r.Loader.LoadConventions(r.Config.ConventionsFile); err != nil {
			return nil, err
		}
	}

	var reports []report.PodReport
	for _, c := range r.Config.CaseList {
		envCtx, err := r.caseContext(c, conventions)
		if err != nil {
			return reports, fmt.Errorf("case %s: %w", c.CaseName, err)
		}
		r.Logger.Info("checking case", "case", c.CaseName, "data_dir", envCtx.DataDir, "pods", len(r.Config.PodList))

		for _, podName := range r.Config.PodList {
			if err := ctx.Err(); err != nil {
				return reports, err
			}
			rep := r.CheckPod(ctx, envCtx, podName)
			r.log(rep)
			if r.Sink != nil {
				if err := r.Sink.Add(rep); err != nil {
					return reports, err
				}
			}
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

// CheckPod validates one pod against one case.
func (r *Runner) CheckPod(ctx context.Context, envCtx envmgr.Context, podName string) report.PodReport {
	rep := report.PodReport{
		Case:         envCtx.CaseName,
		Pod:          podName,
		FoundFiles:   []string{},
		MissingFiles: []string{},
		CheckedAt:    r.Clock(),
	}

	dir := filepath.Join(r.Config.CodeRoot, podName)
	settings, _, err := r.Loader.LoadPodDir(dir)
	if err != nil {
		return skipped(rep, KindSettings, err)
	}

	pod := podconfig.PodFromSettings(dir, settings)
	if err := r.Manager.ResolvePodDriver(&pod); err != nil {
		return skipped(rep, envmgr.KindOf(err), err)
	}
	rep.Driver, rep.Program = pod.Driver, pod.Program

	syntaxErrs, err := r.Checker.Check(ctx, pod.Driver)
	if err != nil {
		return skipped(rep, KindDriverSyntax, err)
	}
	if len(syntaxErrs) > 0 {
		for _, e := range syntaxErrs {
			rep.Diagnostics = append(rep.Diagnostics, e.Error())
		}
		return skipped(rep, KindDriverSyntax, &syntaxErrs[0])
	}

	res := r.Manager.ResolveVarlistFiles(envCtx, settings.Varlist, r.Config.MaxAlternates)
	rep.FoundFiles = res.FoundFiles
	rep.MissingFiles = res.MissingFiles
	if len(res.Substitutions) > 0 {
		rep.Substitutions = res.Substitutions
	}
	rep.Status = report.StatusReady
	if !res.Complete() {
		rep.Status = report.StatusMissingData
	}
	return rep
}

// caseContext builds the naming context of c: the convention table,
// overridden by the case's own env entries.
func (r *Runner) caseContext(c api.Case, conventions *podconfig.Conventions) (envmgr.Context, error) {
	names := map[string]string{}
	if name := podconfig.CaseConvention(r.Config, c); name != "" && conventions != nil {
		table, err := conventions.Names(name)
		if err != nil {
			return envmgr.Context{}, err
		}
		for k, v := range table {
			names[k] = v
		}
	}
	for k, v := range c.Env {
		names[k] = v
	}
	return envmgr.Context{
		DataDir:        podconfig.CaseDataDir(r.Config, c),
		CaseName:       c.CaseName,
		AlternateNames: names,
	}, nil
}

func (r *Runner) log(rep report.PodReport) {
	attrs := []any{"case", rep.Case, "pod", rep.Pod, "status", rep.Status}
	switch rep.Status {
	case report.StatusReady:
		r.Logger.Info("pod ready", append(attrs, "driver", rep.Driver, "program", rep.Program)...)
	case report.StatusMissingData:
		r.Logger.Warn("pod will not be executed: required data missing", append(attrs, "missing", rep.MissingFiles)...)
	default:
		r.Logger.Warn("pod skipped", append(attrs, "kind", rep.ErrorKind, "err", rep.Error)...)
	}
}

func skipped(rep report.PodReport, kind string, err error) report.PodReport {
	rep.Status = report.StatusSkipped
	rep.ErrorKind = kind
	rep.Error = err.Error()
	return rep
}
