package api

// PodSettings is the settings document shipped in every pod directory
// (settings.json or settings.hcl).
type PodSettings struct {
	// Settings describes how the pod is launched.
	Settings Settings `json:"settings"`
	// Varlist is the ordered list of model variables the pod reads.
	Varlist []Variable `json:"varlist,omitempty"`
}

// Settings holds the launch fields of a pod.
type Settings struct {
	// PodName defaults to the pod directory name when empty.
	PodName     string `json:"pod_name,omitempty"`
	LongName    string `json:"long_name,omitempty"`
	Description string `json:"description,omitempty"`
	// Driver is a file name relative to the pod directory, or an absolute path.
	Driver string `json:"driver,omitempty"`
	// Program is the interpreter used to run Driver.
	Program string `json:"program,omitempty"`
}

// Pod is the resolved launch configuration of one pod.
// Name and Dir are required; Driver and Program are filled in by the
// environment manager when empty.
type Pod struct {
	Name    string `json:"pod_name"`
	Dir     string `json:"pod_dir"`
	Driver  string `json:"driver,omitempty"`
	Program string `json:"program,omitempty"`
}

// Variable is one entry of a pod's varlist.
type Variable struct {
	// VarName is the logical variable identifier (e.g. "pr_var").
	VarName string `json:"var_name"`
	// NameInModel is the model's on-disk naming token (e.g. "PRECT").
	NameInModel string `json:"name_in_model,omitempty"`
	// Freq is the sampling frequency token (e.g. "mon", "day", "1hr").
	Freq string `json:"freq"`
	// Required defaults to true when omitted.
	Required *bool `json:"required,omitempty"`
	// Alternates names fallback variables, tried in order.
	Alternates []string `json:"alternates,omitempty"`
}

// IsRequired reports whether the variable must be present.
func (v Variable) IsRequired() bool {
	return v.Required == nil || *v.Required
}

// RunConfig models the YAML run configuration consumed by `mdtf check`.
type RunConfig struct {
	// CodeRoot holds one directory per pod.
	CodeRoot string `yaml:"code_root"`
	// DataRoot holds one directory per case unless a case sets DataDir.
	DataRoot string `yaml:"data_root"`
	// Convention selects the variable naming table from ConventionsFile.
	Convention      string `yaml:"convention,omitempty"`
	ConventionsFile string `yaml:"conventions_file,omitempty"`
	// MaxAlternates caps file probes per variable; 0 tries every alternate.
	MaxAlternates int    `yaml:"max_alternates,omitempty"`
	ReportDB      string `yaml:"report_db,omitempty"`

	CaseList []Case   `yaml:"case_list"`
	PodList  []string `yaml:"pod_list"`
}

// Case is one model run to validate pods against.
type Case struct {
	CaseName string `yaml:"case_name"`
	Model    string `yaml:"model,omitempty"`
	// Convention overrides RunConfig.Convention for this case.
	Convention string `yaml:"convention,omitempty"`
	DataDir    string `yaml:"data_dir,omitempty"`
	FirstYr    int    `yaml:"first_yr,omitempty"`
	LastYr     int    `yaml:"last_yr,omitempty"`
	// Env overrides individual variable names (e.g. prc_var: PRECC).
	Env map[string]string `yaml:"env,omitempty"`
}
