package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []PodReport {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []PodReport{
		{
			Case: "QBOi", Pod: "convective_transition_diag", Status: StatusReady,
			Driver: "/code/conv/conv.py", Program: "python",
			FoundFiles:    []string{"/data/QBOi/1hr/QBOi.PRECT.1hr.nc", "/data/QBOi/1hr/QBOi.qsat_int.1hr.nc"},
			MissingFiles:  []string{},
			Substitutions: map[string]string{"ta_var": "qsat_int_var"},
			CheckedAt:     at,
		},
		{
			Case: "QBOi", Pod: "MJO_suite", Status: StatusMissingData,
			Driver: "/code/MJO_suite/MJO_suite.ncl", Program: "ncl",
			FoundFiles:   []string{},
			MissingFiles: []string{"/data/QBOi/day/QBOi.U200.day.nc"},
			CheckedAt:    at,
		},
		{
			Case: "QBOi", Pod: "broken", Status: StatusSkipped,
			ErrorKind: "program_not_found", Error: "pod broken: program idl not found on search path",
			Diagnostics: []string{"broken.py:1:1: syntax error"},
			CheckedAt:   at,
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleReports())
	assert.Equal(t, Summary{Ready: 1, MissingData: 1, Skipped: 1}, s)
	assert.False(t, s.OK())
	assert.True(t, Summarize(sampleReports()[:1]).OK())
	assert.True(t, Summarize(nil).OK())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReports()))
	out := buf.String()

	assert.Contains(t, out, "ready      QBOi/convective_transition_diag  python /code/conv/conv.py")
	assert.Contains(t, out, "alternate: ta_var -> qsat_int_var")
	assert.Contains(t, out, "missing: /data/QBOi/day/QBOi.U200.day.nc")
	assert.Contains(t, out, "error: pod broken: program idl not found on search path")
	assert.Contains(t, out, "syntax: broken.py:1:1: syntax error")
	assert.Contains(t, out, "1 ready, 1 missing data, 1 skipped\n")
}

func TestSQLiteWriter_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.db")

	w, err := NewSQLiteWriter(dbPath)
	require.NoError(t, err)
	for _, r := range sampleReports() {
		require.NoError(t, w.Add(r))
	}
	require.NoError(t, w.Close())

	got, err := ReadReports(dbPath)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := sampleReports()
	want[2].FoundFiles = []string{}
	want[2].MissingFiles = []string{}
	for i := range want {
		assert.Equal(t, want[i].Case, got[i].Case)
		assert.Equal(t, want[i].Pod, got[i].Pod)
		assert.Equal(t, want[i].Status, got[i].Status)
		assert.Equal(t, want[i].ErrorKind, got[i].ErrorKind)
		assert.Equal(t, want[i].Error, got[i].Error)
		assert.Equal(t, want[i].Driver, got[i].Driver)
		assert.Equal(t, want[i].Program, got[i].Program)
		assert.Equal(t, want[i].FoundFiles, got[i].FoundFiles)
		assert.Equal(t, want[i].MissingFiles, got[i].MissingFiles)
		assert.Equal(t, want[i].Diagnostics, got[i].Diagnostics)
		assert.True(t, want[i].CheckedAt.Equal(got[i].CheckedAt))
	}
	assert.Equal(t, map[string]string{"ta_var": "qsat_int_var"}, got[0].Substitutions)
	assert.Nil(t, got[1].Substitutions)
}

func TestSQLiteWriter_Appends(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.db")
	for i := 0; i < 2; i++ {
		w, err := NewSQLiteWriter(dbPath)
		require.NoError(t, err)
		require.NoError(t, w.Add(sampleReports()[0]))
		require.NoError(t, w.Close())
	}

	got, err := ReadReports(dbPath)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
