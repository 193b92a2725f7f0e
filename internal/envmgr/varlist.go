package envmgr

import (
	"fmt"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/mdtf/api"
)

// TryAllAlternates lifts the probe cap in ResolveVarlistFiles.
const TryAllAlternates = 0

// Result classifies the data files of one varlist. Both file lists follow
// varlist order.
type Result struct {
	FoundFiles   []string
	MissingFiles []string

	// Satisfied holds the varlist indices found directly or through an
	// alternate. Required holds the indices of required variables.
	Satisfied *roaring.Bitmap
	Required  *roaring.Bitmap

	// Substitutions maps a variable name to the alternate used in its place.
	Substitutions map[string]string
}

// Unsatisfied returns the varlist indices of required variables that
// resolved to no file.
func (r Result) Unsatisfied() []uint32 {
	return roaring.AndNot(r.Required, r.Satisfied).ToArray()
}

// Complete reports whether every required variable resolved.
func (r Result) Complete() bool {
	return len(r.Unsatisfied()) == 0
}

// DataFile returns the expected location of a variable's data file:
// <DataDir>/<freq>/<CaseName>.<nameInModel>.<freq>.nc
func DataFile(ctx Context, nameInModel, freq string) string {
	return filepath.Join(ctx.DataDir, freq, fmt.Sprintf("%s.%s.%s.nc", ctx.CaseName, nameInModel, freq))
}

// ResolveVarlistFiles looks up the data file of every variable in vars.
// Present files go to FoundFiles. Missing optional variables are skipped.
// A missing required variable is replaced by the first of its alternates
// whose file exists; if none does, the primary path goes to MissingFiles.
//
// maxProbes caps the existence checks made per variable, the primary
// included; TryAllAlternates (or any value <= 0) removes the cap.
func (m *Manager) ResolveVarlistFiles(ctx Context, vars []api.Variable, maxProbes int) Result {
	res := Result{
		FoundFiles:    []string{},
		MissingFiles:  []string{},
		Satisfied:     roaring.New(),
		Required:      roaring.New(),
		Substitutions: map[string]string{},
	}

	for i, v := range vars {
		idx := uint32(i)
		required := v.IsRequired()
		if required {
			res.Required.Add(idx)
		}

		primary := DataFile(ctx, m.nameInModel(ctx, v), v.Freq)
		if m.paths.IsFile(primary) {
			res.FoundFiles = append(res.FoundFiles, primary)
			res.Satisfied.Add(idx)
			continue
		}
		if !required {
			m.log.Debug("optional variable missing", "var", v.VarName, "path", primary)
			continue
		}

		if alt, path, ok := m.findAlternate(ctx, v, maxProbes); ok {
			m.log.Debug("using alternate variable", "var", v.VarName, "alternate", alt, "path", path)
			res.FoundFiles = append(res.FoundFiles, path)
			res.Satisfied.Add(idx)
			res.Substitutions[v.VarName] = alt
			continue
		}
		res.MissingFiles = append(res.MissingFiles, primary)
	}
	return res
}

// nameInModel prefers the descriptor's own token, then the context
// mapping, then the logical name.
func (m *Manager) nameInModel(ctx Context, v api.Variable) string {
	if v.NameInModel != "" {
		return v.NameInModel
	}
	if name, ok := ctx.NameInModel(v.VarName); ok {
		return name
	}
	return v.VarName
}

// findAlternate probes v's alternates in order. The primary has already
// used one probe. Alternates without a model name are skipped and do not
// count against maxProbes.
func (m *Manager) findAlternate(ctx Context, v api.Variable, maxProbes int) (string, string, bool) {
	probes := 1
	for _, alt := range v.Alternates {
		if maxProbes > 0 && probes >= maxProbes {
			m.log.Debug("alternate probe limit reached", "var", v.VarName, "limit", maxProbes)
			break
		}
		name, known := ctx.NameInModel(alt)
		if !known {
			m.log.Warn("alternate has no model name", "var", v.VarName, "alternate", alt)
			continue
		}
		path := DataFile(ctx, name, v.Freq)
		probes++
		if m.paths.IsFile(path) {
			return alt, path, true
		}
	}
	return "", "", false
}
