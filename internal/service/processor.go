package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	// Capture images arrive as JPEG or PNG.
	_ "image/jpeg"
	_ "image/png"

	"github.com/jmacdonald/appliance-identifier/internal/config"
	"github.com/jmacdonald/appliance-identifier/internal/identify"
	"github.com/jmacdonald/appliance-identifier/internal/logging"
	"github.com/jmacdonald/appliance-identifier/internal/mq"
	"github.com/jmacdonald/appliance-identifier/internal/quality"
	"github.com/jmacdonald/appliance-identifier/internal/usecase"
	"github.com/jmacdonald/appliance-identifier/tools/timeparser"
	"go.uber.org/zap"
)

// CaptureMessage is the incoming capture from the ingest queue. Image holds
// the raw JPEG or PNG bytes, base64-encoded on the wire.
type CaptureMessage struct {
	RequestID         string    `json:"request_id"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	CapturedAt        string    `json:"captured_at"`
	ReceivedAt        time.Time `json:"received_at"`
	Image             []byte    `json:"image"`
}

// EventPublisher publishes identification events. Satisfied by mq.Publisher.
type EventPublisher interface {
	PublishIdentifiedEvent(ctx context.Context, event mq.IdentifiedEvent, routingKey string) error
}

// Processor runs the identification pipeline for each capture message:
// decode, classify and enrich, persist, publish.
type Processor struct {
	identifier *identify.Identifier
	save       *usecase.SaveAppliance
	gate       *quality.Gate
	publisher  EventPublisher
	cfg        *config.Config
	logger     *zap.Logger
}

// NewProcessor creates a new capture processor.
func NewProcessor(
	identifier *identify.Identifier,
	save *usecase.SaveAppliance,
	gate *quality.Gate,
	publisher EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		identifier: identifier,
		save:       save,
		gate:       gate,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessMessage handles one capture message. A returned error sends the
// message to the DLQ; publish failures are logged only, since the record is
// already durably saved.
func (p *Processor) ProcessMessage(ctx context.Context, body []byte) error {
	var msg CaptureMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal capture message: %w", err)
	}

	reqLogger := logging.WithRequestID(p.logger, msg.RequestID)
	reqLogger.Info("processing capture",
		zap.String("device_fingerprint", msg.DeviceFingerprint),
		zap.Int("image_size", len(msg.Image)),
	)

	if len(msg.Image) == 0 {
		return fmt.Errorf("capture message carries no image")
	}

	img, format, err := image.Decode(bytes.NewReader(msg.Image))
	if err != nil {
		return fmt.Errorf("failed to decode capture image: %w", err)
	}
	reqLogger.Debug("capture image decoded", zap.String("format", format))

	capturedAt := p.resolveCaptureTime(msg, reqLogger)

	draft, err := p.identifier.ClassifyCapturedAt(ctx, img, capturedAt)
	if err != nil {
		reqLogger.Error("identification failed", zap.Error(err))
		return fmt.Errorf("failed to identify appliance: %w", err)
	}

	record, err := p.save.Save(ctx, draft)
	if err != nil {
		reqLogger.Error("failed to save identification", zap.Error(err))
		return fmt.Errorf("failed to save identification: %w", err)
	}

	status, reason := p.gate.Assess(record.Confidence)

	event := mq.IdentifiedEvent{
		RequestID:        msg.RequestID,
		RecordID:         record.ID.String(),
		Name:             record.Name,
		Category:         record.Category,
		EstimatedWattage: record.EstimatedWattage,
		Confidence:       record.Confidence,
		Status:           status,
		StatusReason:     reason,
		CapturedAt:       record.CapturedAt.Format(time.RFC3339),
	}
	if err := p.publisher.PublishIdentifiedEvent(ctx, event, p.cfg.RabbitMQ.WorkerRoutingKey); err != nil {
		// The record is already committed; do not fail the message.
		reqLogger.Error("failed to publish identified event",
			zap.Error(err),
			zap.String("record_id", event.RecordID),
		)
	}

	reqLogger.Info("capture processed",
		zap.String("record_id", record.ID.String()),
		zap.String("name", record.Name),
		zap.String("status", status),
	)

	return nil
}

// resolveCaptureTime trusts the device-reported capture time only when it
// parses and sits within the configured tolerance of receipt; otherwise the
// receipt time is used.
func (p *Processor) resolveCaptureTime(msg CaptureMessage, logger *zap.Logger) time.Time {
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	if msg.CapturedAt == "" {
		return receivedAt
	}

	capturedAt, err := timeparser.ParseCaptureTimestamp(msg.CapturedAt)
	if err != nil {
		logger.Warn("unparseable capture timestamp, using receipt time",
			zap.String("captured_at", msg.CapturedAt),
			zap.Error(err),
		)
		return receivedAt
	}

	if !timeparser.IsWithinTolerance(capturedAt, receivedAt, p.cfg.Capture.TimestampToleranceMinutes) {
		logger.Warn("capture timestamp outside tolerance, using receipt time",
			zap.Time("captured_at", capturedAt),
			zap.Time("received_at", receivedAt),
		)
		return receivedAt
	}

	return capturedAt
}
