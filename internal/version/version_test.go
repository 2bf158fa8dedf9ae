package version

import (
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	originalVersion, originalBuildDate, originalGitCommit := Version, BuildDate, GitCommit
	t.Cleanup(func() {
		Version = originalVersion
		BuildDate = originalBuildDate
		GitCommit = originalGitCommit
	})
}

func TestGetVersion(t *testing.T) {
	restore(t)

	for _, v := range []string{"dev", "1.0.0", "v2.1.3", "1.0.0-beta.1", ""} {
		Version = v
		if got := GetVersion(); got != v {
			t.Errorf("GetVersion() = %q, want %q", got, v)
		}
	}
}

func TestGetFullVersion(t *testing.T) {
	restore(t)

	tests := []struct {
		name      string
		version   string
		buildDate string
		gitCommit string
		want      string
	}{
		{
			name:      "default values",
			version:   "dev",
			buildDate: "unknown",
			gitCommit: "unknown",
			want:      "dev (build: unknown, commit: unknown)",
		},
		{
			name:      "production release",
			version:   "1.0.0",
			buildDate: "2024-01-15T10:30:00Z",
			gitCommit: "abc123def",
			want:      "1.0.0 (build: 2024-01-15T10:30:00Z, commit: abc123def)",
		},
		{
			name:      "empty values",
			want:      " (build: , commit: )",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			BuildDate = tt.buildDate
			GitCommit = tt.gitCommit

			if got := GetFullVersion(); got != tt.want {
				t.Errorf("GetFullVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	restore(t)

	Version = "1.2.3"
	if got := UserAgent(); got != "berth/1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "berth/1.2.3")
	}

	Version = ""
	if got := UserAgent(); got != "berth" {
		t.Errorf("UserAgent() = %q, want %q", got, "berth")
	}
}
