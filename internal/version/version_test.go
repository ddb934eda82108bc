package version

import "testing"

func TestString(t *testing.T) {
	old := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = old[0], old[1], old[2] })

	Version, Commit, BuildDate = "v1.2.3", "abc123", "2026-01-02"

	want := "v1.2.3 (commit: abc123, built: 2026-01-02)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Info()["commit"]; got != "abc123" {
		t.Errorf("Info()[commit] = %q", got)
	}
}
