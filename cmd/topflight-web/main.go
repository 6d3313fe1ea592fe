package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/topflight-lang/topflight"
)

const usageText = "Make a POST request on /execute with your code as a raw text in the body to execute your program"

// Request limits. Scripts run to completion inside the request, so the
// step budget is what bounds the time one request can take.
const (
	defaultMaxBody  = 1 << 20
	defaultMaxDepth = 1000
	defaultMaxSteps = 10_000_000
)

// serverConfig is the interpreter configuration shared by all requests.
func serverConfig(maxDepth, maxSteps int) *topflight.Config {
	config := topflight.DefaultConfig()
	config.MaxCallDepth = maxDepth
	config.MaxSteps = maxSteps
	config.ShowErrorContext = false
	return config
}

// newHandler serves the usage text on GET / and runs scripts posted to
// /execute, one fresh session per request.
func newHandler(ip *topflight.Interpreter, maxBody int64) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, usageText)
	})

	mux.HandleFunc("POST /execute", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeText(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("script exceeds %d bytes", maxBody))
				return
			}
			ip.Logger().ErrorCat(topflight.CatHost, "%s: reading request body: %v", r.RemoteAddr, err)
			writeText(w, http.StatusBadRequest, "cannot read request body")
			return
		}

		start := time.Now()
		output, err := ip.Execute(string(body), r.URL.Query()["arg"]...)
		if ip.Logger().Enabled() {
			ip.Logger().DebugCat(topflight.CatHost, "%s executed %d bytes in %v", r.RemoteAddr, len(body), time.Since(start))
		}
		if err != nil {
			output += err.Error()
		}
		writeText(w, http.StatusOK, output)
	})

	return mux
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func main() {
	addr := flag.String("addr", "0.0.0.0:7890", "Listen address")
	maxBody := flag.Int64("max-body", defaultMaxBody, "Maximum script size in bytes")
	maxDepth := flag.Int("max-depth", defaultMaxDepth, "Maximum routine call depth")
	maxSteps := flag.Int("max-steps", defaultMaxSteps, "Maximum instructions one line may run (0 for no limit)")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	config := serverConfig(*maxDepth, *maxSteps)
	config.Debug = *debug
	ip := topflight.New(config)

	server := &http.Server{
		Addr:              *addr,
		Handler:           newHandler(ip, *maxBody),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ip.Logger().Notice("listening on %s", strings.TrimPrefix(*addr, "0.0.0.0"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ip.Logger().Fatal("%v", err)
		os.Exit(1)
	}
}
