package identify_test

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/jmacdonald/appliance-identifier/internal/classifier"
	"github.com/jmacdonald/appliance-identifier/internal/identify"
	"github.com/jmacdonald/appliance-identifier/internal/refdata"
	"go.uber.org/zap"
)

// fakePort returns a scripted result without an engine.
type fakePort struct {
	result classifier.Result
	err    error
}

func (p *fakePort) Classify(ctx context.Context, img image.Image) (classifier.Result, error) {
	return p.result, p.err
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func newIdentifier(port classifier.Port) *identify.Identifier {
	return identify.NewIdentifier(port, refdata.NewStore(), zap.NewNop())
}

func TestCleanLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"n07697537 washing_machine", "washing machine"},
		{"lamp", "lamp"},
		{"a_b c_d", "c d"},
		{"coffee_maker", "coffee maker"},
		{"n01234567 air_conditioner", "air conditioner"},
	}

	for _, c := range cases {
		if got := identify.CleanLabel(c.label); got != c.want {
			t.Errorf("CleanLabel(%q) = %q, expected %q", c.label, got, c.want)
		}
	}
}

func TestClassify_EnrichesKnownAppliance(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "n01234567 washing_machine", Confidence: 0.88}}
	identifier := newIdentifier(port)

	draft, err := identifier.Classify(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if draft.Name != "washing machine" {
		t.Errorf("Expected name 'washing machine', got '%s'", draft.Name)
	}
	if draft.Category != "Laundry" {
		t.Errorf("Expected category 'Laundry', got '%s'", draft.Category)
	}
	if draft.EstimatedWattage != 500 {
		t.Errorf("Expected wattage 500, got %f", draft.EstimatedWattage)
	}
	if draft.Confidence != 0.88 {
		t.Errorf("Expected confidence 0.88, got %f", draft.Confidence)
	}
	if draft.CapturedAt.IsZero() {
		t.Error("Expected capture time to be set")
	}
	if len(draft.ImageData) == 0 {
		t.Error("Expected encoded image data")
	}
}

func TestClassify_UnknownApplianceGetsFallbacks(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "n09999999 gadgetron", Confidence: 0.42}}
	identifier := newIdentifier(port)

	draft, err := identifier.Classify(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if draft.Name != "gadgetron" {
		t.Errorf("Expected name 'gadgetron', got '%s'", draft.Name)
	}
	if draft.Category != refdata.UnknownCategory {
		t.Errorf("Expected category %q, got %q", refdata.UnknownCategory, draft.Category)
	}
	if draft.EstimatedWattage != refdata.DefaultWattage {
		t.Errorf("Expected wattage %f, got %f", refdata.DefaultWattage, draft.EstimatedWattage)
	}
}

func TestClassify_ConfidenceStaysInRange(t *testing.T) {
	for _, confidence := range []float64{0, 0.25, 0.5, 0.99, 1} {
		port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: confidence}}
		identifier := newIdentifier(port)

		draft, err := identifier.Classify(context.Background(), testImage())
		if err != nil {
			t.Fatalf("Expected success, got error: %v", err)
		}
		if draft.Confidence < 0 || draft.Confidence > 1 {
			t.Errorf("Confidence %f outside [0,1]", draft.Confidence)
		}
		if draft.Confidence != confidence {
			t.Errorf("Expected confidence %f, got %f", confidence, draft.Confidence)
		}
	}
}

func TestClassify_ClassifierErrorPropagates(t *testing.T) {
	port := &fakePort{err: classifier.ErrNoResult}
	identifier := newIdentifier(port)

	_, err := identifier.Classify(context.Background(), testImage())
	if !errors.Is(err, classifier.ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}
}

func TestClassify_EncodeFailureDoesNotFailPipeline(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: 0.9}}
	identifier := newIdentifier(port)

	// Images 65536 pixels wide are rejected by the JPEG encoder.
	tooWide := image.NewRGBA(image.Rect(0, 0, 1<<16, 1))

	draft, err := identifier.Classify(context.Background(), tooWide)
	if err != nil {
		t.Fatalf("Expected success despite encode failure, got error: %v", err)
	}
	if draft.ImageData != nil {
		t.Errorf("Expected absent image data, got %d bytes", len(draft.ImageData))
	}
	if draft.Name != "lamp" {
		t.Errorf("Expected name 'lamp', got '%s'", draft.Name)
	}
}

func TestClassifyCapturedAt_UsesGivenTime(t *testing.T) {
	port := &fakePort{result: classifier.Result{Label: "lamp", Confidence: 0.9}}
	identifier := newIdentifier(port)

	capturedAt := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	draft, err := identifier.ClassifyCapturedAt(context.Background(), testImage(), capturedAt)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if !draft.CapturedAt.Equal(capturedAt) {
		t.Errorf("Expected capture time %v, got %v", capturedAt, draft.CapturedAt)
	}
}
