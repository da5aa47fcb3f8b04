package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/services"
)

type inputRequest struct {
	Text string `json:"text"`
}

type selectRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// optionsRequest carries any subset of the pipeline's selections.
// Absent fields are left unchanged.
type optionsRequest struct {
	OutputKind   *models.MediaKind `json:"output_kind" binding:"omitempty,oneof=video audio"`
	FormatID     *string           `json:"format_id" binding:"omitempty,min=1"`
	OutputFormat *string           `json:"output_format" binding:"omitempty,oneof=mp3 wav MP3 WAV"`
	Stems        *[]string         `json:"stems"`
}

type artifactLink struct {
	Label    string `json:"label"`
	Filename string `json:"filename,omitempty"`
	Archive  bool   `json:"archive,omitempty"`
	URL      string `json:"url"`
}

func (s *Server) pipeline(c *gin.Context) (*pipeline.Orchestrator, bool) {
	kind, err := models.ParsePipelineKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	o, err := s.session.Pipeline(kind)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return o, true
}

// fail writes err with the status matching its kind
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var appErr *lib.AppError

	switch {
	case errors.Is(err, lib.ErrJobActive), errors.Is(err, pipeline.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, lib.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrNotSupported):
		status = http.StatusMethodNotAllowed
	case errors.As(err, &appErr):
		switch appErr.Category {
		case lib.CategoryValidation, lib.CategorySubmission:
			status = http.StatusUnprocessableEntity
		case lib.CategoryNetwork:
			status = http.StatusBadGateway
		}
	}

	s.logger.Debug("Bridge request failed", "path", c.FullPath(), "status", status, "error", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	h, err := s.session.Backend().Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) sessionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session_id": s.session.ID,
		"backend":    s.session.Backend().BaseURL(),
		"pipelines":  models.AllPipelines,
	})
}

func (s *Server) snapshot(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o.Snapshot())
}

func (s *Server) setInput(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o.SetInput(req.Text)
	c.JSON(http.StatusOK, o.Snapshot())
}

func (s *Server) selectResult(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := o.SelectResult(*req.Index); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o.Snapshot())
}

func (s *Server) upload(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upload, err := services.NewUpload(fh.Filename, data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := o.SetUpload(upload); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o.Snapshot())
}

func (s *Server) setOptions(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	var req optionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Output kind first: it resets the format selection
	if req.OutputKind != nil {
		if err := o.SetOutputKind(*req.OutputKind); err != nil {
			s.fail(c, err)
			return
		}
	}
	if req.FormatID != nil {
		if err := o.SelectFormat(*req.FormatID); err != nil {
			s.fail(c, err)
			return
		}
	}
	if req.OutputFormat != nil {
		if err := o.SetOutputFormat(*req.OutputFormat); err != nil {
			s.fail(c, err)
			return
		}
	}
	if req.Stems != nil {
		if err := o.SetStems(*req.Stems); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, o.Snapshot())
}

func (s *Server) preview(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	req, err := o.BuildRequest()
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.Upload != nil {
		info := req.Upload.Info()
		c.JSON(http.StatusOK, gin.H{"request": req, "upload": info})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (s *Server) submit(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	if err := o.Submit(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, o.Snapshot())
}

func (s *Server) artifacts(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}
	snap := o.Snapshot()
	links := make([]artifactLink, 0, len(snap.Artifacts))
	for _, ref := range snap.Artifacts {
		links = append(links, artifactLink{
			Label:    ref.Label,
			Filename: ref.Filename,
			Archive:  ref.Archive,
			URL:      s.session.Links().URL(ref),
		})
	}
	c.JSON(http.StatusOK, gin.H{"job_id": snap.Job.JobID, "artifacts": links})
}
