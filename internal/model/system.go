package model

// VersionInfo describes the running build and the applied schema version.
type VersionInfo struct {
	AppVersion string
	DbVersion  int64
}
