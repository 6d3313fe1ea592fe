package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/topflight-lang/topflight"
)

// ANSI color codes for terminal output
const (
	colorYellow = "\x1b[93m"
	colorReset  = "\x1b[0m"
)

// options collects the command line after flag parsing.
type options struct {
	debug      bool
	debugCats  string
	keepGoing  bool
	maxDepth   int
	watch      bool
	highlight  bool
	configPath string
	version    bool

	script     string
	scriptArgs []string
}

func parseOptions(fs *flag.FlagSet, argv []string) (*options, error) {
	opts := &options{}
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&opts.debug, "d", false, "Enable debug output (short)")
	fs.StringVar(&opts.debugCats, "debug-cats", "", "Comma-separated debug categories, or \"all\"")
	fs.BoolVar(&opts.keepGoing, "keep-going", false, "Continue after a failing line")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum routine call depth")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the script whenever it changes")
	fs.BoolVar(&opts.highlight, "highlight", false, "Print the script syntax-highlighted instead of running it")
	fs.StringVar(&opts.configPath, "config", "", "Configuration file (default ~/.topflight/config.yaml)")
	fs.BoolVar(&opts.version, "version", false, "Show version and exit")

	// Everything after "--" belongs to the script.
	var separated []string
	hasSeparator := false
	for i, arg := range argv {
		if arg == "--" {
			argv, separated, hasSeparator = argv[:i], argv[i+1:], true
			break
		}
	}
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	args := fs.Args()
	if len(args) > 0 {
		opts.script = args[0]
		if !hasSeparator {
			opts.scriptArgs = args[1:]
		}
	}
	if hasSeparator {
		opts.scriptArgs = separated
	}
	return opts, nil
}

// errorPrintf prints an error message to stderr, using color if supported
func errorPrintf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if topflight.DetectTerminal(os.Stderr).SupportsColor {
		fmt.Fprintf(os.Stderr, "%s%s%s", colorYellow, message, colorReset)
	} else {
		fmt.Fprint(os.Stderr, message)
	}
}

func main() {
	fs := flag.NewFlagSet("topflight", flag.ExitOnError)
	fs.Usage = showUsage
	opts, err := parseOptions(fs, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("topflight %s\n", topflight.Version)
		return
	}

	configPath, explicit := opts.configPath, opts.configPath != ""
	if !explicit {
		configPath = getConfigFilePath()
	}
	cliConfig, err := loadCLIConfig(configPath, explicit)
	if err != nil {
		errorPrintf("Error: %v\n", err)
		os.Exit(1)
	}

	config, err := interpreterConfig(opts, cliConfig)
	if err != nil {
		errorPrintf("Error: %v\n", err)
		os.Exit(2)
	}
	ip := topflight.New(config)

	switch {
	case opts.script != "" && opts.highlight:
		os.Exit(highlightFile(os.Stdout, opts.script))
	case opts.script != "" && opts.watch:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := watchScript(ctx, opts.script, func() {
			fmt.Fprintf(os.Stderr, "--- running %s\n", filepath.Base(opts.script))
			runFile(ip, opts.script, opts.scriptArgs)
		})
		if err != nil {
			errorPrintf("Error: %v\n", err)
			os.Exit(1)
		}
	case opts.script != "":
		os.Exit(runFile(ip, opts.script, opts.scriptArgs))
	case opts.watch || opts.highlight:
		errorPrintf("Error: -watch and -highlight need a script file\n")
		os.Exit(2)
	case !topflight.DetectTerminal(os.Stdin).IsTerminal:
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			errorPrintf("Error reading from stdin: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(ip, "<stdin>", string(content), opts.scriptArgs))
	default:
		os.Exit(runREPL(ip, cliConfig))
	}
}

// interpreterConfig merges the config file with flags; flags win.
func interpreterConfig(opts *options, cli CLIConfig) (*topflight.Config, error) {
	config := topflight.DefaultConfig()
	config.Debug = opts.debug
	config.ContinueOnError = cli.ContinueOnError || opts.keepGoing
	config.MaxCallDepth = cli.MaxCallDepth
	if opts.maxDepth > 0 {
		config.MaxCallDepth = opts.maxDepth
	}
	if opts.debugCats != "" {
		cats, err := topflight.ParseCategories(opts.debugCats)
		if err != nil {
			return nil, err
		}
		config.Debug = true
		config.DebugCategories = cats
	}
	return config, nil
}

func runFile(ip *topflight.Interpreter, path string, args []string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		errorPrintf("Error reading script file: %v\n", err)
		return 1
	}
	return runSource(ip, path, string(content), args)
}

// runSource runs a whole script in a fresh session, streaming its output,
// and returns the process exit code.
func runSource(ip *topflight.Interpreter, name, source string, args []string) int {
	s := ip.NewSession(os.Stdout)
	s.SetArgs(args)
	err := ip.Run(s, strings.NewReader(source))
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stdout)
	ip.Report(err, name, topflight.SplitLines(source))
	return 1
}

func highlightFile(w io.Writer, path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		errorPrintf("Error reading script file: %v\n", err)
		return 1
	}
	var h topflight.Highlighter
	for _, line := range topflight.SplitLines(string(content)) {
		fmt.Fprintln(w, topflight.Colorize(line, h.Line(line)))
	}
	return 0
}

func runREPL(ip *topflight.Interpreter, cli CLIConfig) int {
	stdout := topflight.DetectTerminal(os.Stdout)
	repl := topflight.NewREPL(ip, topflight.REPLConfig{
		HistoryFile:     cli.HistoryFile,
		ShowBanner:      true,
		Color:           stdout.SupportsColor,
		Width:           stdout.Width,
		LightBackground: cli.lightBackground(),
	}, os.Stdout, os.Stderr)
	if err := repl.Run(); err != nil {
		errorPrintf("Error: %v\n", err)
		return 1
	}
	return 0
}

func showUsage() {
	usage := `Usage: topflight [options] [script.tfl] [-- args...]
       topflight [options] < script.tfl
       topflight                        (interactive mode)

Run a TopFlight script from a file, stdin, or interactively.

Options:
  -d, -debug          Enable debug output
  -debug-cats LIST    Enable debug output for categories (parse,routine,
                      variable,math,array,io,host or all)
  -keep-going         Continue after a failing line
  -max-depth N        Maximum routine call depth (default 10000)
  -watch              Re-run the script whenever the file changes
  -highlight          Print the script with syntax highlighting
  -config FILE        Configuration file (default ~/.topflight/config.yaml)
  -version            Show version and exit

Arguments after the script name are stored in the "args" variable as
an ARRAY_OF_STRING.
`
	fmt.Fprint(os.Stderr, usage)
}
