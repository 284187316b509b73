// Package version holds the server version literal reported over the API.
package version

// Version is the server version string. It is surfaced by the top level
// GraphQL version field and the CLI --version flag.
const Version = "1.16.0"
