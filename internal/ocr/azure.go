package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// azureConfidence is the fixed score assigned to remote results. The
// printed-text API does not expose a fine-grained score through this
// integration, and its output is high-trust in practice.
const azureConfidence = 95

// AzureProvider recognizes printed text through the Azure Computer Vision
// OCR endpoint
type AzureProvider struct {
	client *computervision.BaseClient
}

// NewAzureProvider creates a remote recognition provider against the given
// Cognitive Services endpoint
func NewAzureProvider(endpoint, apiKey string) *AzureProvider {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureProvider{client: &client}
}

// Name identifies the provider on results and in logs
func (p *AzureProvider) Name() string {
	return ProviderAzure
}

// Recognize sends the image to the remote OCR endpoint and flattens the
// region/line/word hierarchy into newline-separated text
func (p *AzureProvider) Recognize(ctx context.Context, image []byte) (*RecognitionResult, error) {
	start := time.Now()

	reader := io.NopCloser(bytes.NewReader(image))
	result, err := p.client.RecognizePrintedTextInStream(
		ctx,
		true,
		reader,
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return nil, fmt.Errorf("azure recognize: %w", err)
	}

	text := flattenOCRResult(result)
	return &RecognitionResult{
		Text:       text,
		Confidence: azureConfidence,
		Provider:   ProviderAzure,
		Elapsed:    time.Since(start),
	}, nil
}

// flattenOCRResult joins recognized words into lines and lines into text,
// preserving reading order
func flattenOCRResult(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var sb strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var lineText strings.Builder
			for _, word := range *line.Words {
				if word.Text == nil {
					continue
				}
				if lineText.Len() > 0 {
					lineText.WriteByte(' ')
				}
				lineText.WriteString(*word.Text)
			}
			if lineText.Len() > 0 {
				sb.WriteString(lineText.String())
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// accessFailureMarkers identify error messages that mean the remote
// provider is structurally unavailable (credentials, quota, permissions)
// rather than flaky on one image
var accessFailureMarkers = []string{
	"401", "403", "429",
	"unauthorized", "forbidden", "permission", "access denied",
	"quota", "rate limit", "invalid subscription key", "subscription",
}

// IsAccessFailure reports whether the error indicates an access, quota or
// permission problem. These trip the provider chain's circuit breaker: once
// the remote provider is structurally unavailable, retrying it per-document
// wastes time and money.
func IsAccessFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range accessFailureMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
