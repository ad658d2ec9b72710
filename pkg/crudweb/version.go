// Package crudweb holds build-time identifiers for the crudweb module.
package crudweb

// Version is the release version reported by the CLI and the web footer.
const Version = "0.1.0"
