package identify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/jmacdonald/appliance-identifier/internal/appliance"
	"github.com/jmacdonald/appliance-identifier/internal/classifier"
	"github.com/jmacdonald/appliance-identifier/internal/refdata"
	"go.uber.org/zap"
)

// jpegQuality is the lossy quality used when persisting capture images.
const jpegQuality = 80

// Identifier turns a raw image into an enriched appliance draft by combining
// the classifier's result with reference energy data.
type Identifier struct {
	port   classifier.Port
	ref    *refdata.Store
	logger *zap.Logger
	clock  func() time.Time
}

// NewIdentifier creates a new identifier.
func NewIdentifier(port classifier.Port, ref *refdata.Store, logger *zap.Logger) *Identifier {
	return &Identifier{
		port:   port,
		ref:    ref,
		logger: logger,
		clock:  time.Now,
	}
}

// Classify identifies the appliance in the image and enriches it with
// wattage and category estimates. The draft's capture time is the current
// time; the call fails if and only if the classifier fails.
func (i *Identifier) Classify(ctx context.Context, img image.Image) (appliance.Draft, error) {
	return i.ClassifyCapturedAt(ctx, img, i.clock())
}

// ClassifyCapturedAt is Classify with an explicit capture time, for callers
// that know when the photo was actually taken.
func (i *Identifier) ClassifyCapturedAt(ctx context.Context, img image.Image, capturedAt time.Time) (appliance.Draft, error) {
	result, err := i.port.Classify(ctx, img)
	if err != nil {
		return appliance.Draft{}, fmt.Errorf("classification failed: %w", err)
	}

	name := CleanLabel(result.Label)

	draft := appliance.Draft{
		Name:             name,
		Category:         i.ref.CategoryOf(name),
		EstimatedWattage: i.ref.EstimateWattage(name),
		Confidence:       result.Confidence,
		CapturedAt:       capturedAt,
		ImageData:        i.encodeImage(img),
	}

	i.logger.Debug("appliance identified",
		zap.String("name", draft.Name),
		zap.String("category", draft.Category),
		zap.Float64("wattage", draft.EstimatedWattage),
		zap.Float64("confidence", draft.Confidence),
	)

	return draft, nil
}

// CleanLabel converts a model label to a human-readable appliance name.
// Namespaced labels like "n07697537 washing_machine" drop their first
// space-delimited token; underscores become spaces in every case.
func CleanLabel(label string) string {
	parts := strings.Split(label, " ")
	if len(parts) > 1 {
		label = strings.Join(parts[1:], " ")
	}
	return strings.ReplaceAll(label, "_", " ")
}

// encodeImage converts the capture to JPEG for storage. Image persistence
// is best-effort: on encode failure the draft simply carries no image.
func (i *Identifier) encodeImage(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		i.logger.Warn("failed to encode capture image, continuing without it", zap.Error(err))
		return nil
	}
	return buf.Bytes()
}
