package envmgr

import "strings"

// Environment keys understood by ContextFromEnv.
const (
	EnvDataDir  = "DATADIR"
	EnvCaseName = "CASENAME"
)

// Context carries the naming inputs of one case. It is passed explicitly
// to every varlist resolution.
type Context struct {
	// DataDir is the case data root; files live under <DataDir>/<freq>/.
	DataDir  string
	CaseName string
	// AlternateNames maps a logical variable name (e.g. "prc_var") to its
	// name in the model (e.g. "PRECC").
	AlternateNames map[string]string
}

// ContextFromEnv builds a Context from an environment-style map. DATADIR
// and CASENAME fill the named fields; every other non-empty entry feeds
// AlternateNames.
func ContextFromEnv(env map[string]string) Context {
	ctx := Context{
		DataDir:        env[EnvDataDir],
		CaseName:       env[EnvCaseName],
		AlternateNames: make(map[string]string, len(env)),
	}
	for k, v := range env {
		if k == EnvDataDir || k == EnvCaseName || strings.TrimSpace(v) == "" {
			continue
		}
		ctx.AlternateNames[k] = v
	}
	return ctx
}

// NameInModel returns the model name registered for varName.
func (c Context) NameInModel(varName string) (string, bool) {
	name, ok := c.AlternateNames[varName]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
