package ocr

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
)

// Remote results shorter than this, or scored below the confidence floor,
// are considered a failed attempt and fall through to the local engine
const (
	remoteMinTextLength   = 10
	remoteConfidenceFloor = 50
)

// lowLocalConfidence marks local results that should reach the user as a
// quality warning instead of being silently accepted
const lowLocalConfidence = 30

// CircuitBreaker is a one-way availability flag for the remote provider.
// It transitions Available -> Disabled at most once per process lifetime
// and is never reset except by restart. Safe under concurrent use.
type CircuitBreaker struct {
	disabled atomic.Bool
}

// NewCircuitBreaker creates a breaker in the Available state
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{}
}

// Available reports whether the remote provider may be attempted
func (b *CircuitBreaker) Available() bool {
	return !b.disabled.Load()
}

// Disable permanently routes recognition away from the remote provider for
// the remainder of the process
func (b *CircuitBreaker) Disable() {
	if b.disabled.CompareAndSwap(false, true) {
		log.Println("Remote OCR provider disabled for the remainder of the process")
	}
}

// Chain routes recognition through the remote provider when it is healthy
// and falls back to the local engine otherwise
type Chain struct {
	remote  Provider
	local   Provider
	breaker *CircuitBreaker
}

// NewChain creates a provider chain. remote may be nil when no remote
// provider is configured; the chain then always uses the local engine.
// The breaker is injected so its state can be shared and observed by the
// caller.
func NewChain(remote, local Provider, breaker *CircuitBreaker) *Chain {
	if breaker == nil {
		breaker = NewCircuitBreaker()
	}
	return &Chain{
		remote:  remote,
		local:   local,
		breaker: breaker,
	}
}

// Breaker exposes the chain's circuit breaker
func (c *Chain) Breaker() *CircuitBreaker {
	return c.breaker
}

// Recognize extracts text from image bytes. The remote provider is tried
// first when available; a short, low-confidence or failed remote attempt
// falls through to the local engine. Access, quota and permission failures
// disable the remote provider for the rest of the process.
func (c *Chain) Recognize(ctx context.Context, image []byte) (*RecognitionResult, error) {
	if c.remote != nil && c.breaker.Available() {
		result, err := c.remote.Recognize(ctx, image)
		if err == nil && remoteResultUsable(result) {
			return result, nil
		}
		if err != nil {
			log.Printf("Remote provider %s failed: %v", c.remote.Name(), err)
			if IsAccessFailure(err) {
				c.breaker.Disable()
			}
		} else {
			log.Printf("Remote provider %s result too sparse (%d chars, confidence %.0f), falling back",
				c.remote.Name(), len(result.Text), result.Confidence)
		}
	}

	return c.recognizeLocal(ctx, image)
}

// RecognizeDocumentText extracts text from a PDF. The embedded text layer
// is always attempted first since it costs nothing; recognition never runs
// on PDF bytes directly.
func (c *Chain) RecognizeDocumentText(ctx context.Context, pdfData []byte) (*RecognitionResult, error) {
	return ExtractPDFText(pdfData)
}

// recognizeLocal runs the local engine and attaches a quality warning when
// its computed confidence is low
func (c *Chain) recognizeLocal(ctx context.Context, image []byte) (*RecognitionResult, error) {
	if c.local == nil {
		return nil, fmt.Errorf("no local engine configured: %w", ErrProviderUnavailable)
	}

	result, err := c.local.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	if result.Confidence < lowLocalConfidence && result.Warning == "" {
		result.Warning = fmt.Sprintf("low recognition confidence (%.0f); extracted data may be unreliable", result.Confidence)
	}
	return result, nil
}

// remoteResultUsable applies the success criterion for remote attempts
func remoteResultUsable(result *RecognitionResult) bool {
	return len(result.Text) > remoteMinTextLength && result.Confidence >= remoteConfidenceFloor
}
