package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/topflight-lang/topflight"
)

func newTestServer(t *testing.T, maxBody int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newHandler(topflight.New(serverConfig(defaultMaxDepth, defaultMaxSteps)), maxBody))
	t.Cleanup(srv.Close)
	return srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestUsage(t *testing.T) {
	srv := newTestServer(t, defaultMaxBody)
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); body != usageText {
		t.Errorf("Unexpected usage %q", body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Missing CORS header")
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("Unexpected content type %q", resp.Header.Get("Content-Type"))
	}
}

func TestExecute(t *testing.T) {
	srv := newTestServer(t, defaultMaxBody)
	script := "STORE x INTEGER(5)\nSTORE y INTEGER(3)\nADD x y z\nPRINT z\n"
	resp, err := http.Post(srv.URL+"/execute", "text/plain", strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "8" {
		t.Errorf("Expected 8, got %q", body)
	}
}

func TestExecuteArgs(t *testing.T) {
	srv := newTestServer(t, defaultMaxBody)
	resp, err := http.Post(srv.URL+"/execute?arg=a&arg=b", "text/plain", strings.NewReader("PRINT args"))
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); body != `["a", "b"]` {
		t.Errorf("Unexpected args %q", body)
	}
}

func TestExecuteError(t *testing.T) {
	srv := newTestServer(t, defaultMaxBody)
	script := "STORE s STRING(\"before \")\nPRINT s\nPRINT nope\nPRINT s\n"
	resp, err := http.Post(srv.URL+"/execute", "text/plain", strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	want := "before Error at line 3: Variable `nope` does not exist\n\tPRINT nope"
	if body := readBody(t, resp); body != want {
		t.Errorf("Expected %q, got %q", want, body)
	}
}

func TestExecuteTooLarge(t *testing.T) {
	srv := newTestServer(t, 16)
	resp, err := http.Post(srv.URL+"/execute", "text/plain", strings.NewReader(strings.Repeat("# padding\n", 10)))
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, defaultMaxBody)
	resp, err := http.Get(srv.URL + "/execute")
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestExecuteStepLimit(t *testing.T) {
	srv := httptest.NewServer(newHandler(topflight.New(serverConfig(defaultMaxDepth, 500)), defaultMaxBody))
	t.Cleanup(srv.Close)

	// Each level calls itself twice, so only the step budget ends it.
	script := "<fork>\nCALL fork\nCALL fork\n</fork>\nCALL fork\n"
	resp, err := http.Post(srv.URL+"/execute", "text/plain", strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	want := "Error at line 4: Step limit of 500 instructions exceeded\n\tCALL fork"
	if body := readBody(t, resp); body != want {
		t.Errorf("Expected %q, got %q", want, body)
	}
}
