package version

// Set via -ldflags at build time.
var (
	AppName   = "bigbadbotsbot"
	Version   = "dev"
	BuildDate = "unknown"
)
