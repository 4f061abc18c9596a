package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--data", dataDir, "--env-file", ""))
	err := root.Execute()
	return out.String(), err
}

func TestTripCommands(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	out, err := run(t, dir, "migrate")
	require.NoError(err)
	require.Contains(out, "schema version 1")

	_, err = run(t, dir, "trip", "create", "trip-1", "alice", "--name", "Lisbon")
	require.NoError(err)
	_, err = run(t, dir, "trip", "add-member", "trip-1", "bob")
	require.NoError(err)
	_, err = run(t, dir, "trip", "add-member", "trip-1", "carol")
	require.NoError(err)
	_, err = run(t, dir, "trip", "remove-member", "trip-1", "carol")
	require.NoError(err)

	out, err = run(t, dir, "trip", "members", "trip-1")
	require.NoError(err)
	require.Contains(out, "alice\tleader\tactive")
	require.Contains(out, "bob\ttraveler\tactive")
	require.Contains(out, "carol\ttraveler\tleft")

	_, err = run(t, dir, "trip", "add-member", "missing", "bob")
	require.Error(err)

	_, err = run(t, dir, "trip", "create", "trip-2")
	require.Error(err)
}

func TestRunHealthCheck(t *testing.T) {
	require := require.New(t)

	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	addr := srv.Listener.Addr().String()
	addr = addr[strings.LastIndex(addr, ":"):]

	require.NoError(runHealthCheck(addr))

	status = http.StatusServiceUnavailable
	err := runHealthCheck(addr)
	require.EqualError(err, "health check returned status 503")
}
