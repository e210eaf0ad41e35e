package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devraulu/rollcall/pkg/checkpoint"
	"github.com/devraulu/rollcall/pkg/storage"
)

const (
	catalogPage = `<html><body>
<a href="/legislative/LIS/roll_call_lists/vote_menu_116_1.htm">2019 (116th Congress, 1st Session)</a>
<a href="/legislative/LIS/roll_call_lists/vote_menu_115_2.htm">2018 (115th Congress, 2nd Session)</a>
</body></html>`
	indexDoc = `<?xml version="1.0" encoding="UTF-8"?>
<vote_summary><congress>116</congress><session>1</session><congress_year>2019</congress_year><votes>
<vote><vote_number>00002</vote_number><vote_date>15-Mar</vote_date><issue>S. 2</issue><question>On Passage</question><result>Passed</result><vote_tally><yeas>51</yeas><nays>49</nays></vote_tally><title>Second</title></vote>
<vote><vote_number>00001</vote_number><vote_date>01-Feb</vote_date><issue>S. 1</issue><question>On Passage</question><result>Passed</result><vote_tally><yeas>60</yeas><nays>40</nays></vote_tally><title>First</title></vote>
</votes></vote_summary>`
	detailTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<roll_call_vote><members>
<member><last_name>Alexander</last_name><first_name>Lamar</first_name><party>R</party><state>TN</state><vote_cast>%s</vote_cast><lis_member_id>S289</lis_member_id></member>
</members></roll_call_vote>`
)

type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }

func (instantClock) Sleep(context.Context, time.Duration) error { return nil }

func newSenateServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/legislative/votes.htm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogPage))
	})
	mux.HandleFunc("/legislative/LIS/roll_call_lists/vote_menu_116_1.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexDoc))
	})
	mux.HandleFunc("/legislative/LIS/roll_call_votes/vote1161/vote_116_1_00001.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, detailTemplate, "Yea")
	})
	mux.HandleFunc("/legislative/LIS/roll_call_votes/vote1161/vote_116_1_00002.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, detailTemplate, "Nay")
	})
	// Published, but not yet listed in the session index.
	mux.HandleFunc("/legislative/LIS/roll_call_votes/vote1161/vote_116_1_00003.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, detailTemplate, "Yea")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`[crawler]
base_url = %q

[politeness]
respect_robots = false

[output]
checkpoint_file = %q
`, baseURL, filepath.Join(dir, "config.yml"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...))
	return cmd.Execute()
}

// runAgainst executes the command against srv with pauses skipped and
// returns what it printed.
func runAgainst(t *testing.T, srv *httptest.Server, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := (&app{clock: instantClock{}}).rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t, dir, srv.URL)}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", "--path", dir, "--years", "2017,2018"))

	cp, err := checkpoint.Load(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, []int{2017, 2018}, cp.TrackedYears)
	assert.DirExists(t, filepath.Join(dir, "data", "rollcalls"))
}

func TestBatchCommandRejectsUnknownFormat(t *testing.T) {
	err := run(t, "batch", "--congress", "116", "--session", "1", "--format", "table")
	assert.ErrorContains(t, err, "valid formats")
}

func TestVoteCommandValidatesInput(t *testing.T) {
	err := run(t, "vote", "--congress=-1", "--session", "1", "--vote", "3")
	assert.ErrorContains(t, err, "must be positive")
}

func TestBatchCommandConcat(t *testing.T) {
	srv := newSenateServer(t)
	dir := t.TempDir()

	out, err := runAgainst(t, srv, dir, "batch", "--congress", "116", "--session", "1", "--format", "concat")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"vote_number,senator,party,state,vote,lis_member_id",
		`2,"Alexander, Lamar",R,TN,Nay,S289`,
		`1,"Alexander, Lamar",R,TN,Yea,S289`,
	}, lines)
}

func TestBatchCommandDict(t *testing.T) {
	srv := newSenateServer(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "data")

	out, err := runAgainst(t, srv, dir, "batch", "--congress", "116", "--session", "1", "--format", "dict", "--save", "--data", data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"# vote 1",
		"senator,party,state,vote,lis_member_id",
		`"Alexander, Lamar",R,TN,Yea,S289`,
		"# vote 2",
		"senator,party,state,vote,lis_member_id",
		`"Alexander, Lamar",R,TN,Nay,S289`,
	}, lines)

	files, err := storage.NewCSVStorage(data)
	require.NoError(t, err)
	assert.FileExists(t, files.BatchPath(116, 1))
	assert.FileExists(t, files.RecordsPath(116, 1, 1))
	assert.FileExists(t, files.RecordsPath(116, 1, 2))
}

func TestVoteCommandSavesSummaryWithRecords(t *testing.T) {
	srv := newSenateServer(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "data")

	out, err := runAgainst(t, srv, dir, "vote", "--congress", "116", "--session", "1", "--vote", "2", "--save", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, `"Alexander, Lamar",R,TN,Nay,S289`)

	files, err := storage.NewCSVStorage(data)
	require.NoError(t, err)
	index, err := os.ReadFile(files.IndexPath(116, 1))
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(index)), "\n")
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[1], "2,Second,51,49,"), rows[1])
	assert.FileExists(t, files.RecordsPath(116, 1, 2))
}

func TestVoteCommandSaveUnknownVote(t *testing.T) {
	srv := newSenateServer(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "data")

	_, err := runAgainst(t, srv, dir, "vote", "--congress", "116", "--session", "1", "--vote", "3", "--save", "--data", data)
	assert.ErrorContains(t, err, "not found")

	files, err := storage.NewCSVStorage(data)
	require.NoError(t, err)
	assert.NoFileExists(t, files.RecordsPath(116, 1, 3))
}

func TestUpdateCommand(t *testing.T) {
	srv := newSenateServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	lastUpdate := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, checkpoint.Save(path, checkpoint.Checkpoint{
		TrackedYears: []int{2019},
		LastUpdate:   lastUpdate,
		OutputPath:   filepath.Join(dir, "data"),
	}))

	_, err := runAgainst(t, srv, dir, "update")
	require.NoError(t, err)

	cp, err := checkpoint.Load(path)
	require.NoError(t, err)
	assert.True(t, cp.LastUpdate.After(lastUpdate))
	assert.Equal(t, []int{2019}, cp.TrackedYears)

	files, err := storage.NewCSVStorage(cp.OutputPath)
	require.NoError(t, err)
	assert.FileExists(t, files.IndexPath(116, 1))
	assert.FileExists(t, files.RecordsPath(116, 1, 2))
	assert.NoFileExists(t, files.RecordsPath(116, 1, 1))
}
