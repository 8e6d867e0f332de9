package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/predictd/internal/application/inference"
	"github.com/aescanero/predictd/pkg/domain"
)

// PredictResponse represents a successful prediction
type PredictResponse struct {
	Prediction domain.Prediction `json:"prediction"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	status := s.health.GetStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}

// handleModelInfo returns metadata of the loaded model
func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.ModelInfo())
}

// handlePredict handles single-row predictions.
// The body is parsed as JSON whatever the Content-Type.
func (s *Server) handlePredict(c *gin.Context) {
	body, err := s.readBody(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	row, err := inference.DecodeRow(body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	prediction, err := s.service.Predict(c.Request.Context(), inference.Request{
		ID:     c.GetString(requestIDKey),
		Source: inference.SourceHTTP,
		Frame:  domain.Frame{row},
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Prediction: prediction})
}

// handlePredictBatch handles predictions for a JSON array of rows
func (s *Server) handlePredictBatch(c *gin.Context) {
	body, err := s.readBody(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	frame, err := inference.DecodeBatch(body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	prediction, err := s.service.Predict(c.Request.Context(), inference.Request{
		ID:     c.GetString(requestIDKey),
		Source: inference.SourceHTTPBatch,
		Frame:  frame,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Prediction: prediction})
}

// readBody reads the request body up to the configured limit
func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, inference.InvalidPayload(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil)
		}
		return nil, inference.InvalidPayload("failed to read request body", err)
	}

	return body, nil
}

// respondError writes a classified error
func (s *Server) respondError(c *gin.Context, err error) {
	e, ok := inference.AsError(err)
	if !ok {
		s.logger.Error("unclassified error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL",
				Message: "internal server error",
			},
		})
		return
	}

	status := http.StatusInternalServerError
	if e.Code == inference.CodeInvalidPayload {
		status = http.StatusBadRequest
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    string(e.Code),
			Message: e.Error(),
			Details: e.Details,
		},
	})
}
