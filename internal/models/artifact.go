package models

// Artifact is a generated video. Its storage key is always "<ID>.mp4".
type Artifact struct {
	ID   string `json:"video_id"`
	Size int64  `json:"size"`
}

const ArtifactExt = ".mp4"

func (a Artifact) Filename() string { return a.ID + ArtifactExt }
