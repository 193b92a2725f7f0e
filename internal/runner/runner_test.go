package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mdtf/api"
	"github.com/agentic-research/mdtf/internal/envmgr"
	"github.com/agentic-research/mdtf/internal/probe"
	"github.com/agentic-research/mdtf/internal/report"
)

var checkedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func write(t *testing.T, fs billy.Filesystem, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), perm))
}

// fixture lays out a code tree with one pod per outcome, a data tree for
// case QBOi, and python/ncl interpreters in /usr/bin.
func fixture(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()

	write(t, fs, "/usr/bin/python", "", 0o755)
	write(t, fs, "/usr/bin/ncl", "", 0o755)

	write(t, fs, "/code/conv/settings.json", `{
  "settings": {"driver": "conv.py"},
  "varlist": [
    {"var_name": "pr_var", "freq": "1hr"},
    {"var_name": "ta_var", "freq": "1hr", "alternates": ["qsat_int_var"]},
    {"var_name": "ts_var", "freq": "mon", "required": false}
  ]
}`, 0o644)
	write(t, fs, "/code/conv/conv.py", "import os\nprint(os.environ['pr_var'])\n", 0o644)

	write(t, fs, "/code/mjo/settings.hcl", `
settings {
  pod_name = "MJO_suite"
}

variable "u200_var" {
  freq = "day"
}
`, 0o644)
	write(t, fs, "/code/mjo/MJO_suite.ncl", "begin\nend\n", 0o644)

	write(t, fs, "/code/idl/settings.json", `{"settings": {"driver": "idl.pro"}}`, 0o644)
	write(t, fs, "/code/idl/idl.pro", "", 0o644)

	write(t, fs, "/code/rpod/settings.json", `{"settings": {"driver": "rpod.R"}}`, 0o644)
	write(t, fs, "/code/rpod/rpod.R", "", 0o644)

	write(t, fs, "/code/broken/settings.json", `{"settings": {"driver": "broken.py"}}`, 0o644)
	write(t, fs, "/code/broken/broken.py", "def main(\n    return 1\n", 0o644)

	require.NoError(t, fs.MkdirAll("/code/empty", 0o755))

	write(t, fs, "/conventions.json", `{"conventions": {
  "CESM": {"pr_var": "PRECT", "ta_var": "T", "qsat_int_var": "qsat_int"}
}}`, 0o644)

	write(t, fs, "/data/QBOi/1hr/QBOi.PRECT.1hr.nc", "", 0o644)
	write(t, fs, "/data/QBOi/1hr/QBOi.qsat_int.1hr.nc", "", 0o644)
	return fs
}

func newRunner(fs billy.Filesystem, cfg *api.RunConfig) *Runner {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := envmgr.New(
		envmgr.WithPathProber(probe.NewFSProber(fs)),
		envmgr.WithExecutableFinder(probe.NewPathFinder(fs, []string{"/usr/bin"})),
		envmgr.WithLogger(quiet),
	)
	r := NewRunner(cfg, mgr, fs)
	r.Logger = quiet
	r.Clock = func() time.Time { return checkedAt }
	return r
}

func baseConfig(pods ...string) *api.RunConfig {
	return &api.RunConfig{
		CodeRoot:        "/code",
		DataRoot:        "/data",
		Convention:      "CESM",
		ConventionsFile: "/conventions.json",
		CaseList:        []api.Case{{CaseName: "QBOi"}},
		PodList:         pods,
	}
}

func byPod(reports []report.PodReport) map[string]report.PodReport {
	out := make(map[string]report.PodReport, len(reports))
	for _, r := range reports {
		out[r.Pod] = r
	}
	return out
}

func TestRun_Outcomes(t *testing.T) {
	fs := fixture(t)
	r := newRunner(fs, baseConfig("conv", "mjo", "idl", "rpod", "broken", "empty"))

	reports, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 6)
	got := byPod(reports)

	conv := got["conv"]
	assert.Equal(t, report.StatusReady, conv.Status)
	assert.Equal(t, "/code/conv/conv.py", conv.Driver)
	assert.Equal(t, "python", conv.Program)
	assert.Equal(t, []string{
		"/data/QBOi/1hr/QBOi.PRECT.1hr.nc",
		"/data/QBOi/1hr/QBOi.qsat_int.1hr.nc",
	}, conv.FoundFiles)
	assert.Empty(t, conv.MissingFiles)
	assert.Equal(t, map[string]string{"ta_var": "qsat_int_var"}, conv.Substitutions)
	assert.Equal(t, checkedAt, conv.CheckedAt)

	mjo := got["mjo"]
	assert.Equal(t, report.StatusMissingData, mjo.Status)
	assert.Equal(t, "/code/mjo/MJO_suite.ncl", mjo.Driver, "driver discovered from pod_name")
	assert.Equal(t, "ncl", mjo.Program)
	assert.Equal(t, []string{"/data/QBOi/day/QBOi.u200_var.day.nc"}, mjo.MissingFiles)

	idl := got["idl"]
	assert.Equal(t, report.StatusSkipped, idl.Status)
	assert.Equal(t, envmgr.KindUnrecognizedExtension, idl.ErrorKind)

	rpod := got["rpod"]
	assert.Equal(t, report.StatusSkipped, rpod.Status)
	assert.Equal(t, envmgr.KindProgramNotFound, rpod.ErrorKind)
	assert.Contains(t, rpod.Error, "Rscript")

	broken := got["broken"]
	assert.Equal(t, report.StatusSkipped, broken.Status)
	assert.Equal(t, KindDriverSyntax, broken.ErrorKind)
	assert.NotEmpty(t, broken.Diagnostics)
	assert.Equal(t, "python", broken.Program)

	empty := got["empty"]
	assert.Equal(t, report.StatusSkipped, empty.Status)
	assert.Equal(t, KindSettings, empty.ErrorKind)
}

func TestRun_CaseEnvOverridesConvention(t *testing.T) {
	fs := fixture(t)
	write(t, fs, "/data/QBOi/1hr/QBOi.ta.1hr.nc", "", 0o644)
	cfg := baseConfig("conv")
	cfg.CaseList[0].Env = map[string]string{"ta_var": "ta"}

	reports, err := newRunner(fs, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusReady, reports[0].Status)
	assert.Contains(t, reports[0].FoundFiles, "/data/QBOi/1hr/QBOi.ta.1hr.nc")
	assert.Nil(t, reports[0].Substitutions)
}

func TestRun_MaxAlternates(t *testing.T) {
	fs := fixture(t)
	cfg := baseConfig("conv")
	cfg.MaxAlternates = 1

	reports, err := newRunner(fs, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusMissingData, reports[0].Status)
	assert.Equal(t, []string{"/data/QBOi/1hr/QBOi.T.1hr.nc"}, reports[0].MissingFiles)
}

func TestRun_CaseDataDir(t *testing.T) {
	fs := fixture(t)
	write(t, fs, "/scratch/run1/day/QBOi.u200_var.day.nc", "", 0o644)
	cfg := baseConfig("mjo")
	cfg.CaseList[0].DataDir = "/scratch/run1"

	reports, err := newRunner(fs, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusReady, reports[0].Status)
	assert.Equal(t, []string{"/scratch/run1/day/QBOi.u200_var.day.nc"}, reports[0].FoundFiles)
}

func TestRun_UnknownConvention(t *testing.T) {
	fs := fixture(t)
	cfg := baseConfig("conv")
	cfg.Convention = "GFDL"

	_, err := newRunner(fs, cfg).Run(context.Background())
	assert.ErrorContains(t, err, "case QBOi")
}

func TestRun_MultipleCases(t *testing.T) {
	fs := fixture(t)
	cfg := baseConfig("conv")
	cfg.CaseList = append(cfg.CaseList, api.Case{CaseName: "AMIP"})

	reports, err := newRunner(fs, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "QBOi", reports[0].Case)
	assert.Equal(t, report.StatusReady, reports[0].Status)
	assert.Equal(t, "AMIP", reports[1].Case)
	assert.Equal(t, report.StatusMissingData, reports[1].Status)
}

type recordingSink struct {
	got []report.PodReport
	err error
}

func (s *recordingSink) Add(r report.PodReport) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, r)
	return nil
}

func TestRun_Sink(t *testing.T) {
	fs := fixture(t)
	r := newRunner(fs, baseConfig("conv", "mjo"))
	sink := &recordingSink{}
	r.Sink = sink

	reports, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reports, sink.got)

	r.Sink = &recordingSink{err: errors.New("disk full")}
	_, err = r.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestRun_Cancelled(t *testing.T) {
	fs := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := newRunner(fs, baseConfig("conv")).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
