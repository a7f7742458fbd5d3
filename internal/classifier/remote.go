package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RemoteEngine sends images to an HTTP inference service and delivers the
// top prediction through the Engine callback contract. Each submission runs
// on its own goroutine so the caller is never blocked by the request.
type RemoteEngine struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteEngine creates an engine talking to the inference service at
// baseURL. The timeout bounds the whole request, including body read.
func NewRemoteEngine(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteEngine {
	return &RemoteEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type predictResponse struct {
	Predictions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
}

// Submit encodes the image as JPEG and posts it to the inference service.
func (e *RemoteEngine) Submit(img image.Image, fn func(label string, confidence float64, err error)) {
	go func() {
		label, confidence, err := e.predict(img)
		if err != nil {
			e.logger.Warn("inference request failed", zap.Error(err))
		}
		fn(label, confidence, err)
	}()
}

func (e *RemoteEngine) predict(img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", 0, &BackendError{Err: fmt.Errorf("failed to encode request image: %w", err)}
	}

	resp, err := e.client.Post(e.baseURL+"/v1/classify", "image/jpeg", &buf)
	if err != nil {
		return "", 0, &BackendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &BackendError{Err: fmt.Errorf("inference service returned status %d", resp.StatusCode)}
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", 0, &BackendError{Err: fmt.Errorf("failed to decode inference response: %w", err)}
	}

	if len(decoded.Predictions) == 0 {
		return "", 0, ErrNoResult
	}

	top := decoded.Predictions[0]
	return top.Label, top.Confidence, nil
}

// jpegQuality is the lossy quality used for request and stored images.
const jpegQuality = 80
