// Package version records the plugin version reported in webhook payloads.
package version

// Version is carried as plugin_version in every webhook envelope and in the
// default User-Agent header.
const Version = "1.0.0"
