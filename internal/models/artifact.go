package models

// ArtifactRef points at a downloadable file produced by a finished job.
// It never carries file content; the link builder resolves it to a URL.
type ArtifactRef struct {
	JobID    string       `json:"job_id"`
	Kind     PipelineKind `json:"kind"`
	SubName  string       `json:"sub_name,omitempty"` // Stem or track label; empty for the main file or archive
	Label    string       `json:"label"`
	Filename string       `json:"filename,omitempty"`
	Archive  bool         `json:"archive,omitempty"`
}

// ArchiveLabel names the synthetic "all stems" artifact
const ArchiveLabel = "all"

// ArchiveFilename is the name the backend gives the stems archive
const ArchiveFilename = "stems.zip"

// DisplayName returns the best filename to save the artifact under
func (a ArtifactRef) DisplayName() string {
	if a.Filename != "" {
		return a.Filename
	}
	if a.SubName != "" {
		return a.SubName
	}
	return a.JobID
}
