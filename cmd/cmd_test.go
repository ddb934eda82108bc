package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(%v) error = %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestAskMock(t *testing.T) {
	got := run(t, "", "ask", "--mock", "--style", "", "--history", "How", "many", "rows?")

	for _, want := range []string{"Generated Python Code", "len(df)", "Execution Result", "150", "Chat Window"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestChatMock(t *testing.T) {
	input := "\nmean petal length\n/history\n/quit\n"
	got := run(t, input, "chat", "--mock", "--style", "", "--engine", "javascript")

	for _, want := range []string{"Please enter a message before sending.", "Generated JavaScript Code", "Chat Window", "mean petal length"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestDashboardCommand(t *testing.T) {
	got := run(t, "", "dashboard", "--style", "", "--species", "setosa", "--x", "petal length (cm)")

	for _, want := range []string{"Filtered Data", "Scatter Plot", "Summary Statistics", `x="petal length (cm)"`, "50 points"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestUnknownEngine(t *testing.T) {
	rootCmd.SetArgs([]string{"ask", "--mock", "--engine", "cobol", "hi"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Execute() expected configuration error")
	}
	rootCmd.PersistentFlags().Set("engine", "python")
}
