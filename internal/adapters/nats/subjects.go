package natsadapter

import "strings"

const (
	fixSubjectPrefix   = "marker.fix."
	frameSubjectPrefix = "marker.frame."

	// FixWildcard matches every marker fix subject.
	FixWildcard = fixSubjectPrefix + ">"
	// FrameWildcard matches every marker frame subject.
	FrameWildcard = frameSubjectPrefix + ">"
)

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

// Token turns a marker id into a single subject token.
func Token(markerID string) string {
	if markerID == "" {
		return "_"
	}
	return tokenReplacer.Replace(markerID)
}

// FixSubject is the subject fixes for a marker are published on.
func FixSubject(markerID string) string {
	return fixSubjectPrefix + Token(markerID)
}

// FrameSubject is the subject animation frames for a marker are published on.
func FrameSubject(markerID string) string {
	return frameSubjectPrefix + Token(markerID)
}
