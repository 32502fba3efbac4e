package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X github.com/modkit-go/unison/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X github.com/modkit-go/unison/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X github.com/modkit-go/unison/internal/version.Date={{.Date}}
)
