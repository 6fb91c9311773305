package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spigell/hh-interviewer/internal/coach"
	"github.com/spigell/hh-interviewer/internal/document"
	"github.com/spigell/hh-interviewer/internal/generator"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/skills"
	"go.uber.org/zap"
)

var errFileTooLarge = errors.New("file too large")

// chatPayload is the response shape shared by every interview route.
// Metrics and Tips serialise as null when absent.
type chatPayload struct {
	Response string             `json:"response"`
	Metrics  *interview.Metrics `json:"metrics"`
	Tips     []string           `json:"tips"`
	Stage    *interview.Stage   `json:"stage,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type resumeRequest struct {
	Input string `json:"input"`
}

func message(text string) chatPayload {
	return chatPayload{Response: text}
}

// statusFor maps an error to the HTTP status of its class.
func statusFor(err error) int {
	if errors.Is(err, generator.ErrEmptyInput) || errors.Is(err, errFileTooLarge) {
		return http.StatusBadRequest
	}

	switch coach.Outcome(err) {
	case coach.OutcomeSuccess:
		return http.StatusOK
	case coach.OutcomeInvalid:
		return http.StatusBadRequest
	case coach.OutcomeGateway:
		return http.StatusBadGateway
	case coach.OutcomeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for a failed upload or resume build.
func userMessage(err error) string {
	switch {
	case errors.Is(err, document.ErrNoFile):
		return "No file uploaded."
	case errors.Is(err, document.ErrEmptyFilename):
		return "No file selected."
	case errors.Is(err, document.ErrUnsupportedFormat):
		return "Unsupported file format. Please upload a PDF or text file."
	case errors.Is(err, errFileTooLarge):
		return "The uploaded file is too large."
	case errors.Is(err, document.ErrExtraction):
		return fmt.Sprintf("Error extracting text from the document: %v", err)
	case errors.Is(err, skills.ErrNoJSON):
		return "Error: The AI response did not contain valid JSON. Please try again."
	case errors.Is(err, skills.ErrMalformedJSON):
		return fmt.Sprintf("Error parsing JSON: %v", err)
	case errors.Is(err, generator.ErrEmptyInput):
		return "No input provided for resume generation."
	case errors.Is(err, generator.ErrResume):
		return fmt.Sprintf("Error generating resume: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	filename, data, err := s.readUpload(c)
	if err == nil {
		var reply string
		reply, err = s.deps.Coach.Upload(c.Request.Context(), c.GetString(userKey), filename, data)
		if err == nil {
			c.JSON(http.StatusOK, message(reply))
			return
		}
	}

	c.JSON(statusFor(err), message(userMessage(err)))
}

// readUpload returns the multipart "file" part. A part sent without a
// filename arrives as a plain form value, which is how an empty file
// selection is told apart from a missing one.
func (s *Server) readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if _, ok := c.GetPostForm("file"); ok {
			return "", nil, document.ErrEmptyFilename
		}
		return "", nil, document.ErrNoFile
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", nil, errFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", document.ErrExtraction, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", document.ErrExtraction, err)
	}

	return header.Filename, data, nil
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, message("Invalid chat request."))
		return
	}

	status, payload := s.chat(c, req.Message)
	c.JSON(status, payload)
}

func (s *Server) chat(c *gin.Context, text string) (int, chatPayload) {
	result := s.deps.Coach.Chat(c.Request.Context(), c.GetString(userKey), text)

	payload := chatPayload{
		Response: result.Response,
		Metrics:  result.Metrics,
		Tips:     result.Tips,
		Stage:    &result.Stage,
	}

	if result.Kind == interview.ReplyError {
		return statusFor(result.Err), payload
	}
	return http.StatusOK, payload
}

func (s *Server) handleBuildResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, message(userMessage(generator.ErrEmptyInput)))
		return
	}

	resume, err := s.deps.Coach.BuildResume(c.Request.Context(), req.Input)
	if err != nil {
		logger.WithSession(s.logger, c.GetString(userKey)).Warn("resume generation failed", zap.Error(err))
		c.JSON(statusFor(err), message(userMessage(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": resume})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Coach.Status(c.GetString(userKey)))
}
