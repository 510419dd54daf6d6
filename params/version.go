package params

import "fmt"

const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
	VersionMeta  = "stable"
)

var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

var VersionWithMeta = func() string {
	if VersionMeta != "" {
		return Version + "-" + VersionMeta
	}
	return Version
}()

// VersionWithCommit appends the short commit hash and date when the binary
// was built from git.
func VersionWithCommit(gitCommit, gitDate string) string {
	vsn := VersionWithMeta
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		vsn += "-" + gitDate
	}
	return vsn
}
