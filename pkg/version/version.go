package version

// Version represents the current version of KatelyaTV
const Version = "0.9.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "katelyatv version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}
