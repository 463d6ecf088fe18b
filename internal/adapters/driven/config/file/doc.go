// Package file stores dexmigrate settings in ~/.dexmigrate/config.toml.
//
// Keys use dot notation ("resolver.kind") and map to TOML tables on disk.
// Every Set is written through immediately.
package file
