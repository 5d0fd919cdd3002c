package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, parts ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		io.WriteString(w, "<"+r.PostForm.Get("prompt")+">")
		for _, p := range parts {
			io.WriteString(w, p)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runAsk(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAskPrintsStreamedText(t *testing.T) {
	srv := streamServer(t, "Hello", " **world**")

	out, errOut, err := runAsk(t, "", "--server", srv.URL, "say", "hi")

	require.NoError(t, err)
	assert.Equal(t, "<say hi>Hello **world**\n", out)
	assert.Contains(t, errOut, "waiting")
}

func TestAskReadsPromptFromStdin(t *testing.T) {
	srv := streamServer(t, "ok")

	out, _, err := runAsk(t, "from stdin\n", "--server", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<from stdin>ok\n", out)
}

func TestAskHTML(t *testing.T) {
	srv := streamServer(t, "**bold**")

	out, _, err := runAsk(t, "", "--server", srv.URL, "--html", "x")

	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "**")
}

func TestAskReportsUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, errOut, err := runAsk(t, "", "--server", url, "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, errShown)
	assert.Empty(t, out)
	assert.Equal(t, 1, strings.Count(errOut, "Error:"))
}
