// Package types defines the Store and RecordTable interfaces, the Record
// entity, backend configuration, and the standard errors shared by the
// storage backend, the web handlers, and the CLI.
package types
