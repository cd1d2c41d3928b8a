// Package source holds named connection parameters for query execution.
//
// A Registry maps symbolic names to a Config (address, user, credential).
// Queries bound by name look their source up at execution time, so
// re-registering a name with Add takes effect on the next execution.
// The entry named "default" is used when a query names no source.
//
// Registries are explicit values rather than process-wide state: the CLI
// builds one from a YAML sources file with LoadFile, and tests build a fresh
// one per case.
package source
