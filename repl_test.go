package topflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestREPL(config REPLConfig) (*REPL, *strings.Builder, *strings.Builder) {
	var out, errOut strings.Builder
	return NewREPL(New(nil), config, &out, &errOut), &out, &errOut
}

func TestREPLRunsLines(t *testing.T) {
	r, out, errOut := newTestREPL(REPLConfig{})
	for _, line := range []string{"STORE x INTEGER(1)", "PRINT x", "PRINT x"} {
		if r.processInput(line) {
			t.Fatalf("%s: unexpected exit", line)
		}
	}
	if out.String() != "1\n1\n" {
		t.Errorf("Expected each PRINT on its own line, got %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("Unexpected errors %q", errOut.String())
	}
}

func TestREPLReportsErrorsAndContinues(t *testing.T) {
	r, out, errOut := newTestREPL(REPLConfig{})
	r.processInput("STORE x INTEGER(2)")
	r.processInput("PRINT nope")
	r.processInput("PRINT x")

	want := "Error at line 2: Variable `nope` does not exist\n"
	if errOut.String() != want {
		t.Errorf("Expected %q, got %q", want, errOut.String())
	}
	if out.String() != "2\n" {
		t.Errorf("Session should continue after an error, got %q", out.String())
	}
}

func TestREPLCommands(t *testing.T) {
	r, out, _ := newTestREPL(REPLConfig{})
	r.processInput("STORE x INTEGER(1)")
	r.processInput("<r>")
	if got := r.prompt(); got != "r... " {
		t.Errorf("Expected building prompt, got %q", got)
	}
	r.processInput("PRINT x")
	r.processInput("</r>")
	if got := r.prompt(); got != "tf> " {
		t.Errorf("Expected default prompt, got %q", got)
	}

	out.Reset()
	r.processInput(":vars")
	if !strings.Contains(out.String(), "x = INTEGER(1)\n") {
		t.Errorf("Unexpected :vars output %q", out.String())
	}

	out.Reset()
	r.processInput(":routines")
	if out.String() != "r (1 instructions)\n" {
		t.Errorf("Unexpected :routines output %q", out.String())
	}

	out.Reset()
	r.processInput(":routines r")
	if out.String() != "<r>\nPRINT x\n</r>\n" {
		t.Errorf("Unexpected routine listing %q", out.String())
	}

	r.processInput(":reset")
	if r.Session().Memory.Len() != 0 || len(r.Session().Routines) != 0 {
		t.Error("Expected :reset to clear the session")
	}

	if !r.processInput(":quit") || !r.processInput(" :exit ") {
		t.Error("Expected :quit and :exit to end the REPL")
	}
}

func TestREPLLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.tfl")
	if err := os.WriteFile(path, []byte("<hello>\nSTORE m STRING(\"hey\")\nPRINT m\n</hello>\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, out, errOut := newTestREPL(REPLConfig{})
	r.processInput(":load " + path)
	r.processInput("CALL hello")
	if out.String() != "hey\n" {
		t.Errorf("Expected hey, got %q (errors %q)", out.String(), errOut.String())
	}

	r.processInput(":load " + filepath.Join(t.TempDir(), "missing.tfl"))
	if !strings.Contains(errOut.String(), "cannot read") {
		t.Errorf("Expected read error, got %q", errOut.String())
	}
}

func TestREPLFitsWidth(t *testing.T) {
	r, out, _ := newTestREPL(REPLConfig{Width: 12})
	r.processInput(`STORE s STRING("a long string value")`)
	r.processInput(":vars")
	if out.String() != "s = STRIN...\n" {
		t.Errorf("Expected truncated listing, got %q", out.String())
	}
}

func TestCompleteLine(t *testing.T) {
	got := completeLine("pri")
	if len(got) != 1 || got[0] != "PRINT " {
		t.Errorf("Expected [PRINT ], got %v", got)
	}
	got = completeLine(":r")
	if len(got) != 2 || got[0] != ":reset" || got[1] != ":routines" {
		t.Errorf("Expected [:reset :routines], got %v", got)
	}
	if completeLine("PRINT x") != nil {
		t.Error("Expected no completion after the keyword")
	}
	if len(completeLine("COMPARE_")) != 6 {
		t.Errorf("Expected 6 comparisons, got %v", completeLine("COMPARE_"))
	}
}

func TestREPLDebugCommand(t *testing.T) {
	r, out, errOut := newTestREPL(REPLConfig{})
	logger := r.ip.Logger()

	r.processInput(":debug all")
	if !logger.Enabled() || !logger.IsCategoryEnabled(CatMath) || !logger.IsCategoryEnabled(CatHost) {
		t.Error("Expected :debug all to enable every category")
	}
	if !strings.HasPrefix(out.String(), "debug output on\n") || !strings.Contains(out.String(), "  * math\n") {
		t.Errorf("Unexpected :debug output %q", out.String())
	}

	out.Reset()
	r.processInput(":debug math,array")
	if logger.IsCategoryEnabled(CatMath) || logger.IsCategoryEnabled(CatArray) || !logger.IsCategoryEnabled(CatParse) {
		t.Error("Expected math and array to be toggled off")
	}
	if !strings.Contains(out.String(), "    math\n") {
		t.Errorf("Expected math to be listed as off, got %q", out.String())
	}

	r.processInput(":debug off")
	if logger.Enabled() {
		t.Error("Expected :debug off to disable debug output")
	}

	r.processInput(":debug bogus")
	if !strings.Contains(errOut.String(), `unknown log category "bogus"`) {
		t.Errorf("Expected an unknown category error, got %q", errOut.String())
	}
}
