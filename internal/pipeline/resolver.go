package pipeline

import (
	"sort"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

var karaokeTrackOrder = []string{models.TrackInstrumental, models.TrackVocals}

// Resolve maps the result of a finished job to the artifacts it produced.
// Stems get a trailing "all" archive when at least one stem exists.
func Resolve(handle models.JobHandle, result *models.JobResult) []models.ArtifactRef {
	if result == nil || handle.JobID == "" {
		return nil
	}

	switch handle.Kind {
	case models.PipelineDownload:
		label := result.Title
		if label == "" {
			label = result.Filename
		}
		return []models.ArtifactRef{{
			JobID:    handle.JobID,
			Kind:     handle.Kind,
			Label:    label,
			Filename: result.Filename,
		}}

	case models.PipelineStems:
		refs := namedArtifacts(handle, result.Stems, models.AllStems)
		if len(refs) > 0 {
			refs = append(refs, models.ArtifactRef{
				JobID:    handle.JobID,
				Kind:     handle.Kind,
				Label:    models.ArchiveLabel,
				Filename: models.ArchiveFilename,
				Archive:  true,
			})
		}
		return refs

	case models.PipelineKaraoke:
		return namedArtifacts(handle, result.Tracks, karaokeTrackOrder)

	default:
		return nil
	}
}

// namedArtifacts lists files in canonical order, then any other names alphabetically
func namedArtifacts(handle models.JobHandle, files map[string]string, order []string) []models.ArtifactRef {
	if len(files) == 0 {
		return nil
	}

	names := make([]string, 0, len(files))
	known := make(map[string]bool, len(order))
	for _, name := range order {
		known[name] = true
		if _, ok := files[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range files {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	refs := make([]models.ArtifactRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, models.ArtifactRef{
			JobID:    handle.JobID,
			Kind:     handle.Kind,
			SubName:  name,
			Label:    name,
			Filename: files[name],
		})
	}
	return refs
}
