package version

// Version is overridden at build time via -ldflags "-X cafedoko/pkg/version.Version=...".
var Version = "v0.3.0"
