// Package filesystem abstracts the local filesystem for dump acquisition.
//
// OSFileSystem reads from disk. MemoryFileSystem keeps files in a map and
// is what tests use to feed the pipeline without touching disk.
package filesystem
