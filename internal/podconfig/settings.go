// Package podconfig loads pod settings, run configurations and variable
// naming conventions.
package podconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/agentic-research/mdtf/api"
)

// Settings file names searched in a pod directory, in order.
const (
	SettingsJSON = "settings.json"
	SettingsHCL  = "settings.hcl"
)

// ErrNoSettings is returned when a pod directory holds no settings file.
var ErrNoSettings = errors.New("no settings file")

// Loader reads configuration files from a billy filesystem.
type Loader struct {
	fs billy.Filesystem
}

// NewLoader reads from fs.
func NewLoader(fs billy.Filesystem) *Loader {
	return &Loader{fs: fs}
}

// LoadPodDir loads the settings file of the pod in dir and returns the
// settings with the path they were read from.
func (l *Loader) LoadPodDir(dir string) (*api.PodSettings, string, error) {
	for _, name := range []string{SettingsJSON, SettingsHCL} {
		path := filepath.Join(dir, name)
		if _, err := l.fs.Stat(path); err != nil {
			continue
		}
		s, err := l.LoadSettings(path)
		return s, path, err
	}
	return nil, "", fmt.Errorf("%s: %w", dir, ErrNoSettings)
}

// LoadSettings reads a settings file; the format follows its extension.
func (l *Loader) LoadSettings(path string) (*api.PodSettings, error) {
	content, err := util.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s *api.PodSettings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		s, err = decodeJSONSettings(content, path)
	case ".hcl":
		s, err = decodeHCLSettings(content, path)
	default:
		return nil, fmt.Errorf("settings %s: unsupported format", path)
	}
	if err != nil {
		return nil, err
	}
	if err := validateVarlist(s.Varlist, path); err != nil {
		return nil, err
	}
	return s, nil
}

// PodFromSettings builds the pod descriptor for a pod living in dir. The
// pod name defaults to the directory name.
func PodFromSettings(dir string, s *api.PodSettings) api.Pod {
	name := s.Settings.PodName
	if name == "" {
		name = filepath.Base(dir)
	}
	return api.Pod{
		Name:    name,
		Dir:     dir,
		Driver:  s.Settings.Driver,
		Program: s.Settings.Program,
	}
}

func decodeJSONSettings(content []byte, path string) (*api.PodSettings, error) {
	var s api.PodSettings
	if err := json.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse json %s: %w", path, err)
	}
	return &s, nil
}

type hclSettingsFile struct {
	Settings  *hclSettings   `hcl:"settings,block"`
	Variables []*hclVariable `hcl:"variable,block"`
}

type hclSettings struct {
	PodName     string `hcl:"pod_name,optional"`
	LongName    string `hcl:"long_name,optional"`
	Description string `hcl:"description,optional"`
	Driver      string `hcl:"driver,optional"`
	Program     string `hcl:"program,optional"`
}

type hclVariable struct {
	VarName     string   `hcl:"var_name,label"`
	NameInModel string   `hcl:"name_in_model,optional"`
	Freq        string   `hcl:"freq"`
	Optional    bool     `hcl:"optional,optional"`
	Alternates  []string `hcl:"alternates,optional"`
}

func decodeHCLSettings(content []byte, path string) (*api.PodSettings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclSettingsFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	s := &api.PodSettings{}
	if parsed.Settings != nil {
		s.Settings = api.Settings(*parsed.Settings)
	}
	for _, v := range parsed.Variables {
		required := !v.Optional
		s.Varlist = append(s.Varlist, api.Variable{
			VarName:     v.VarName,
			NameInModel: v.NameInModel,
			Freq:        v.Freq,
			Required:    &required,
			Alternates:  v.Alternates,
		})
	}
	return s, nil
}

func validateVarlist(vars []api.Variable, path string) error {
	seen := make(map[string]bool, len(vars))
	for i, v := range vars {
		if v.VarName == "" {
			return fmt.Errorf("settings %s: varlist[%d]: var_name is empty", path, i)
		}
		if v.Freq == "" {
			return fmt.Errorf("settings %s: variable %s: freq is empty", path, v.VarName)
		}
		if seen[v.VarName] {
			return fmt.Errorf("settings %s: duplicate variable %s", path, v.VarName)
		}
		seen[v.VarName] = true
	}
	return nil
}
