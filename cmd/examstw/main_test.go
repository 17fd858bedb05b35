package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeseed/exams-tw/internal/entity"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"export", "extract", "fetch", "housekeep", "jobs", "load", "resolve", "serve"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestLoadBatches(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, loadBatches(paths, 2))
	assert.Equal(t, [][]string{paths}, loadBatches(paths, 0))
	assert.Nil(t, loadBatches(nil, 3))
}

func TestFilterFlags(t *testing.T) {
	f := filterFlags{year: "113", subject: "國文", limit: 3}.filter()
	assert.Equal(t, "113", f.Year)
	assert.Equal(t, "國文", f.Subject)
	assert.Equal(t, 3, f.Limit)
}

func TestPrintJobs(t *testing.T) {
	msg := "no layout"
	var buf bytes.Buffer
	err := printJobs(&buf, []*entity.ExtractJob{{
		ExamID: "fse00000001", Layout: "pua-inline", Status: "SKIPPED",
		StartedAt: time.Now(), ErrorMessage: &msg,
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "fse00000001")
	assert.Contains(t, out, "no layout")
}
