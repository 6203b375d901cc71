package version

import (
	"strings"
	"testing"
)

func TestStringIncludesVersionAndCommit(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "9.9.9", "abc123"
	got := String()
	if !strings.HasPrefix(got, "rundownd 9.9.9 (abc123, go") {
		t.Fatalf("String() = %q", got)
	}
}
