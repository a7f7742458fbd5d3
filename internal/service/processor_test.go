package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmacdonald/appliance-identifier/internal/classifier"
	"github.com/jmacdonald/appliance-identifier/internal/config"
	"github.com/jmacdonald/appliance-identifier/internal/identify"
	"github.com/jmacdonald/appliance-identifier/internal/mq"
	"github.com/jmacdonald/appliance-identifier/internal/quality"
	"github.com/jmacdonald/appliance-identifier/internal/refdata"
	"github.com/jmacdonald/appliance-identifier/internal/service"
	"github.com/jmacdonald/appliance-identifier/internal/store/filestore"
	"github.com/jmacdonald/appliance-identifier/internal/usecase"
	"go.uber.org/zap"
)

type fakePort struct {
	result classifier.Result
	err    error
}

func (p *fakePort) Classify(ctx context.Context, img image.Image) (classifier.Result, error) {
	return p.result, p.err
}

type fakePublisher struct {
	events []mq.IdentifiedEvent
	err    error
}

func (p *fakePublisher) PublishIdentifiedEvent(ctx context.Context, event mq.IdentifiedEvent, routingKey string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName: "appliance-identifier-test",
		RabbitMQ:    config.RabbitMQConfig{WorkerRoutingKey: "appliance.identified"},
		Capture:     config.CaptureConfig{TimestampToleranceMinutes: 60},
	}
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newProcessor(t *testing.T, port classifier.Port, publisher service.EventPublisher) (*service.Processor, *filestore.FileStore) {
	t.Helper()
	logger := zap.NewNop()

	fs, err := filestore.Open(filepath.Join(t.TempDir(), "appliances.json"), logger)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { fs.Close() })

	identifier := identify.NewIdentifier(port, refdata.NewStore(), logger)
	processor := service.NewProcessor(
		identifier,
		usecase.NewSaveAppliance(fs),
		quality.NewGate(0.5),
		publisher,
		testConfig(),
		logger,
	)
	return processor, fs
}

func captureBody(t *testing.T, msg service.CaptureMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}
	return body
}

func TestProcessMessage_SavesAndPublishes(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "n01234567 washing_machine", Confidence: 0.88}}
	publisher := &fakePublisher{}
	processor, fs := newProcessor(t, port, publisher)

	receivedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	body := captureBody(t, service.CaptureMessage{
		RequestID:         "req-1",
		DeviceFingerprint: "device-1",
		CapturedAt:        "2026-08-30T11:58:00Z",
		ReceivedAt:        receivedAt,
		Image:             testJPEG(t),
	})

	if err := processor.ProcessMessage(context.Background(), body); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	records, err := fs.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Name != "washing machine" {
		t.Errorf("Expected name 'washing machine', got '%s'", records[0].Name)
	}
	wantCaptured := time.Date(2026, 8, 30, 11, 58, 0, 0, time.UTC)
	if !records[0].CapturedAt.Equal(wantCaptured) {
		t.Errorf("Expected device capture time %v, got %v", wantCaptured, records[0].CapturedAt)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.RequestID != "req-1" || event.Name != "washing machine" {
		t.Errorf("Unexpected event contents: %+v", event)
	}
	if event.Status != quality.StatusConfident {
		t.Errorf("Expected status %q, got %q", quality.StatusConfident, event.Status)
	}
	if event.RecordID != records[0].ID.String() {
		t.Errorf("Expected event record ID %s, got %s", records[0].ID, event.RecordID)
	}
}

func TestProcessMessage_LowConfidenceFlaggedButSaved(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: 0.3}}
	publisher := &fakePublisher{}
	processor, fs := newProcessor(t, port, publisher)

	body := captureBody(t, service.CaptureMessage{
		RequestID:  "req-2",
		ReceivedAt: time.Now(),
		Image:      testJPEG(t),
	})

	if err := processor.ProcessMessage(context.Background(), body); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	records, _ := fs.ListAll(context.Background())
	if len(records) != 1 {
		t.Fatalf("Expected uncertain identification to be saved, got %d records", len(records))
	}
	if publisher.events[0].Status != quality.StatusUncertain {
		t.Errorf("Expected status %q, got %q", quality.StatusUncertain, publisher.events[0].Status)
	}
	if publisher.events[0].StatusReason == "" {
		t.Error("Expected a status reason for uncertain identification")
	}
}

func TestProcessMessage_ClassifierFailureFailsMessage(t *testing.T) {
	port := &fakePort{err: classifier.ErrNoResult}
	publisher := &fakePublisher{}
	processor, fs := newProcessor(t, port, publisher)

	body := captureBody(t, service.CaptureMessage{
		RequestID:  "req-3",
		ReceivedAt: time.Now(),
		Image:      testJPEG(t),
	})

	if err := processor.ProcessMessage(context.Background(), body); err == nil {
		t.Fatal("Expected error when classifier fails")
	}

	records, _ := fs.ListAll(context.Background())
	if len(records) != 0 {
		t.Errorf("Expected no records after failed classification, got %d", len(records))
	}
	if len(publisher.events) != 0 {
		t.Errorf("Expected no events after failed classification, got %d", len(publisher.events))
	}
}

func TestProcessMessage_InvalidJSON(t *testing.T) {
	processor, _ := newProcessor(t, &fakePort{}, &fakePublisher{})

	if err := processor.ProcessMessage(context.Background(), []byte("{not json")); err == nil {
		t.Error("Expected error for malformed message")
	}
}

func TestProcessMessage_MissingImage(t *testing.T) {
	processor, _ := newProcessor(t, &fakePort{}, &fakePublisher{})

	body := captureBody(t, service.CaptureMessage{RequestID: "req-4", ReceivedAt: time.Now()})
	if err := processor.ProcessMessage(context.Background(), body); err == nil {
		t.Error("Expected error for message without image")
	}
}

func TestProcessMessage_PublishFailureDoesNotFailMessage(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: 0.9}}
	publisher := &fakePublisher{err: context.DeadlineExceeded}
	processor, fs := newProcessor(t, port, publisher)

	body := captureBody(t, service.CaptureMessage{
		RequestID:  "req-5",
		ReceivedAt: time.Now(),
		Image:      testJPEG(t),
	})

	if err := processor.ProcessMessage(context.Background(), body); err != nil {
		t.Fatalf("Expected success despite publish failure, got %v", err)
	}

	records, _ := fs.ListAll(context.Background())
	if len(records) != 1 {
		t.Errorf("Expected record to stay saved, got %d records", len(records))
	}
}

func TestProcessMessage_StaleCaptureTimeFallsBackToReceipt(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: 0.9}}
	publisher := &fakePublisher{}
	processor, fs := newProcessor(t, port, publisher)

	receivedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	body := captureBody(t, service.CaptureMessage{
		RequestID:  "req-6",
		CapturedAt: "2020-01-01T00:00:00Z", // years outside tolerance
		ReceivedAt: receivedAt,
		Image:      testJPEG(t),
	})

	if err := processor.ProcessMessage(context.Background(), body); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	records, _ := fs.ListAll(context.Background())
	if !records[0].CapturedAt.Equal(receivedAt) {
		t.Errorf("Expected fallback to receipt time %v, got %v", receivedAt, records[0].CapturedAt)
	}
}
