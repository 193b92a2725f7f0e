package podconfig

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/mdtf/api"
)

// LoadRunConfig reads a YAML run configuration. Relative paths in it are
// resolved against the directory of the file.
func (l *Loader) LoadRunConfig(path string) (*api.RunConfig, error) {
	content, err := util.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}

	var cfg api.RunConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse run config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.CodeRoot = resolvePath(base, cfg.CodeRoot)
	cfg.DataRoot = resolvePath(base, cfg.DataRoot)
	cfg.ConventionsFile = resolvePath(base, cfg.ConventionsFile)
	cfg.ReportDB = resolvePath(base, cfg.ReportDB)
	for i := range cfg.CaseList {
		cfg.CaseList[i].DataDir = resolvePath(base, cfg.CaseList[i].DataDir)
	}

	if err := validateRunConfig(&cfg); err != nil {
		return nil, fmt.Errorf("run config %s: %w", path, err)
	}
	return &cfg, nil
}

// CaseDataDir returns the data directory of c: its own DataDir, or
// <data_root>/<case_name>.
func CaseDataDir(cfg *api.RunConfig, c api.Case) string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(cfg.DataRoot, c.CaseName)
}

// CaseConvention returns the naming convention that applies to c.
func CaseConvention(cfg *api.RunConfig, c api.Case) string {
	if c.Convention != "" {
		return c.Convention
	}
	return cfg.Convention
}

func validateRunConfig(cfg *api.RunConfig) error {
	if cfg.CodeRoot == "" {
		return fmt.Errorf("code_root is required")
	}
	if len(cfg.CaseList) == 0 {
		return fmt.Errorf("case_list is empty")
	}
	if len(cfg.PodList) == 0 {
		return fmt.Errorf("pod_list is empty")
	}
	if cfg.MaxAlternates < 0 {
		return fmt.Errorf("max_alternates must not be negative")
	}
	for i, c := range cfg.CaseList {
		if c.CaseName == "" {
			return fmt.Errorf("case_list[%d]: case_name is required", i)
		}
		if c.DataDir == "" && cfg.DataRoot == "" {
			return fmt.Errorf("case %s: data_dir or data_root is required", c.CaseName)
		}
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
