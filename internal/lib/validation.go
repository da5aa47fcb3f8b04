package lib

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest checks a job request before it is sent to the backend.
// Field rules come from the struct tags of models.JobRequest; the rules that
// depend on the pipeline kind are checked here.
func ValidateRequest(req models.JobRequest) error {
	if err := requestValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrInvalidRequest(describeFieldErrors(verrs), err)
		}
		return ErrInvalidRequest("malformed request", err)
	}

	switch req.Kind {
	case models.PipelineDownload:
		if !req.HasURL() {
			return ErrInvalidRequest("download needs a URL", nil)
		}
		if req.Upload != nil {
			return ErrInvalidRequest("download does not accept uploaded files", nil)
		}
		if req.FormatID == "" {
			return ErrInvalidRequest("no format selected", nil)
		}
		if !models.IsValidMediaKind(req.MediaKind) {
			return ErrInvalidRequest(fmt.Sprintf("unknown output kind %q", req.MediaKind), nil)
		}
		if len(req.Stems) > 0 {
			return ErrInvalidRequest("download does not take a stem selection", nil)
		}

	case models.PipelineStems, models.PipelineKaraoke:
		if req.HasURL() == req.HasUpload() {
			return ErrInvalidRequest("provide exactly one of a URL or an uploaded file", nil)
		}
		if req.OutputFormat == "" {
			return ErrInvalidRequest("no output format selected", nil)
		}
		if req.Kind == models.PipelineKaraoke && len(req.Stems) > 0 {
			return ErrInvalidRequest("karaoke does not take a stem selection", nil)
		}
	}

	return nil
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s], got %q",
				strings.ToLower(fe.Field()), fe.Param(), fmt.Sprint(fe.Value())))
		case "url":
			parts = append(parts, fmt.Sprintf("%q is not a valid URL", fmt.Sprint(fe.Value())))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
