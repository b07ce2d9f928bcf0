package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// VersionPath is the fixed, unauthenticated endpoint used as the liveness
// probe. Any service exposing it is expected to answer with a JSON body.
const VersionPath = "/api/version"

// Outcome classifies a single probe attempt.
//
// Outcome is a string type for human-readable logging; the defined
// constants are the only values produced by [Prober.Probe].
type Outcome string

const (
	// OutcomeReady indicates the endpoint answered with a JSON body.
	OutcomeReady Outcome = "ready"

	// OutcomeKeyNotValid indicates an HTTP 403: the service is up but the
	// supplied API key is not (yet) accepted.
	OutcomeKeyNotValid Outcome = "key not valid"

	// OutcomeNotJSON indicates a response was received but its body did not
	// parse as JSON, e.g. a proxy error page while the service boots.
	OutcomeNotJSON Outcome = "no valid json"

	// OutcomeUnreachable indicates the request itself failed: connection
	// refused, DNS failure, request timeout.
	OutcomeUnreachable Outcome = "unreachable"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Report holds the classified result of one probe attempt.
type Report struct {
	// Outcome is the classification of the attempt.
	Outcome Outcome

	// Version is the version_major value reported by the endpoint, when the
	// body is a JSON object carrying one. Best effort: success never
	// depends on it being present.
	Version string

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Detail is a short human-readable description of why the attempt did
	// not succeed, suitable for progress narration.
	Detail string
}

// maxDetailLen caps transport error strings in Detail; some net errors
// embed long address chains.
const maxDetailLen = 100

// Prober issues readiness probes against a single target service.
//
// The version URL is constructed once: the fixed [VersionPath] appended to
// the base URL, plus the API key appended verbatim as the raw query string
// when one is configured. The key is deliberately not URL-encoded; it is
// passed through exactly as given so the server sees it byte-for-byte.
type Prober struct {
	versionURL string
	client     *Client
	logger     *slog.Logger
}

// New creates a [Prober] for the given base URL.
//
// apiKey, when non-empty, is appended to the version URL as "?<apiKey>"
// with no encoding. requestTimeout bounds each individual probe request.
func New(baseURL, apiKey string, requestTimeout time.Duration, logger *slog.Logger) *Prober {
	versionURL := baseURL + VersionPath
	if apiKey != "" {
		versionURL = fmt.Sprintf("%s?%s", versionURL, apiKey)
	}

	// one ID per wait invocation, attached to every probe request
	requestID := uuid.NewString()

	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		versionURL: versionURL,
		client:     NewClient(requestTimeout, requestID),
		logger:     logger.With("request_id", requestID),
	}
}

// URL returns the fully constructed version URL that will be probed.
func (p *Prober) URL() string {
	return p.versionURL
}

// Probe performs one probe attempt and classifies the result.
//
// No error is ever returned: every network-layer failure is absorbed into
// [OutcomeUnreachable] and every unparseable body into [OutcomeNotJSON].
// The caller decides whether to retry.
func (p *Prober) Probe(ctx context.Context) Report {
	resp := p.client.Fetch(ctx, p.versionURL)

	if resp.Error != nil {
		detail := resp.Error.Error()
		if len(detail) > maxDetailLen {
			detail = detail[:maxDetailLen]
		}
		p.logger.Debug("probe failed", "outcome", OutcomeUnreachable, "error", detail)
		return Report{Outcome: OutcomeUnreachable, Detail: detail}
	}

	if resp.StatusCode == http.StatusForbidden {
		p.logger.Debug("probe rejected", "outcome", OutcomeKeyNotValid, "status", resp.StatusCode)
		return Report{
			Outcome:    OutcomeKeyNotValid,
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	// any JSON value at all counts as alive, regardless of shape or status
	// code; only the verbose log path cares about version_major
	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		p.logger.Debug("probe unparseable", "outcome", OutcomeNotJSON, "status", resp.StatusCode)
		return Report{
			Outcome:    OutcomeNotJSON,
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	version := versionMajor(payload)
	p.logger.Debug("probe succeeded", "status", resp.StatusCode, "version", version)
	return Report{Outcome: OutcomeReady, Version: version, StatusCode: resp.StatusCode}
}

// Close releases the prober's idle connections.
func (p *Prober) Close() {
	p.client.Close()
}

// versionMajor extracts the version_major field from a decoded JSON value.
// Returns empty string when the value is not an object or the field is
// missing; a missing field is a logging gap, never a probe failure.
func versionMajor(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	v, ok := obj["version_major"]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
