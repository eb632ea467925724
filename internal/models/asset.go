package models

// Asset is an uploaded source image, addressed by its generated filename.
type Asset struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ID is the filename without its extension.
func (a Asset) ID() string {
	for i := len(a.Filename) - 1; i >= 0; i-- {
		if a.Filename[i] == '.' {
			return a.Filename[:i]
		}
	}
	return a.Filename
}
