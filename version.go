// Package cacheman provides the version information for cacheman-mongo.
package cacheman

// Version is the current version of cacheman-mongo.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
