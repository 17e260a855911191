package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/model"
)

func fakeGitHub(t *testing.T, listStatus int) (*httptest.Server, *int32) {
	t.Helper()

	var listCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1001, "login": "alice"}`))
	})
	mux.HandleFunc("/user/1001/repos", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(listStatus)
		if listStatus == http.StatusOK {
			_, _ = w.Write([]byte(`[{"id": 1, "name": "dotfiles", "description": "my dotfiles", "html_url": "https://github.com/alice/dotfiles", "owner": {"login": "alice"}}]`))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("REPOLOOKUP_GITHUB_BASE_URL", server.URL)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("REPOLOOKUP_LOG_LEVEL", "error")
	return server, &listCalls
}

func TestRootCmd_Table(t *testing.T) {
	fakeGitHub(t, http.StatusOK)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"alice"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "alice (id 1001): 1 public repositories")
	assert.Contains(t, out.String(), "dotfiles")
	assert.Contains(t, out.String(), "https://github.com/alice/dotfiles")
}

func TestRootCmd_JSONFromSessionUser(t *testing.T) {
	fakeGitHub(t, http.StatusOK)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--session-user", "alice", "-o", "json"})

	require.NoError(t, cmd.Execute())

	var res model.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, model.StateSuccess, res.Status.State)
	assert.Equal(t, "1001", res.NumericID)
	require.Len(t, res.Repositories, 1)
}

func TestRootCmd_SessionNumericID(t *testing.T) {
	fakeGitHub(t, http.StatusOK)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--session-id", "1001", "--refresh"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "alice (id 1001): 1 public repositories")
}

func TestRootCmd_Idle(t *testing.T) {
	fakeGitHub(t, http.StatusOK)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--session-user", "alice", "--session-github=false"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "nothing to look up")
}

func TestRootCmd_AuthFailureIsNotRetried(t *testing.T) {
	_, listCalls := fakeGitHub(t, http.StatusForbidden)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"alice", "--retries", "3"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, out.String(), string(common.KindAuthFailure))
	assert.Equal(t, int32(1), atomic.LoadInt32(listCalls))
}

func TestRootCmd_UnknownOutput(t *testing.T) {
	fakeGitHub(t, http.StatusOK)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"alice", "-o", "yaml"})

	assert.Error(t, cmd.Execute())
}

func TestRenderTable_Error(t *testing.T) {
	var out bytes.Buffer
	err := render(&out, "table", model.Result{
		Target: "ghost",
		Status: model.Status{State: model.StateError, Kind: common.KindUserNotFound},
	})
	require.NoError(t, err)
	assert.Equal(t, "ghost: error(UserNotFound)\n", out.String())
}
