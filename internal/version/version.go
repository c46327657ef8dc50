package version

// Version is the current version of gofast.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/gofast/gofast/internal/version.Version=v1.0.0'"
var Version = "dev"
