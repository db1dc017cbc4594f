package providers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	openai "github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"finai/backend/internal/llm/contract"
)

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

// Larger second counts do not fit in a time.Duration and are ignored.
const maxDelaySeconds = math.MaxInt64 / int64(time.Second)

// Paths where Google-style error payloads carry their details array. The
// OpenAI-compatible Gemini endpoint wraps the error in a one-element list.
var detailPaths = []string{
	"error.details",
	"0.error.details",
	"errorDetails",
	"details",
}

var errEmptyResponse = errors.New("empty response")

// ClassifyError translates SDK errors into *contract.RateLimitError when the
// provider throttled the request. Other errors pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return classifyStatus(oaErr.StatusCode, responseHeader(oaErr.Response), oaErr.RawJSON(), err)
	}
	var anErr *anthropic.Error
	if errors.As(err, &anErr) {
		return classifyStatus(anErr.StatusCode, responseHeader(anErr.Response), anErr.RawJSON(), err)
	}
	if isRateLimitError(err) {
		delay := RetryDelayFromDetails(extractJSON(err.Error()))
		return &contract.RateLimitError{StatusCode: http.StatusTooManyRequests, RetryDelay: delay, Err: err}
	}
	return err
}

func classifyStatus(status int, header http.Header, body string, err error) error {
	if status != http.StatusTooManyRequests {
		return err
	}
	delay := RetryDelayFromDetails(body)
	if delay == 0 {
		delay = RetryDelayFromDetails(extractJSON(err.Error()))
	}
	if headerDelay := retryAfter(header); headerDelay > delay {
		delay = headerDelay
	}
	return &contract.RateLimitError{StatusCode: status, RetryDelay: delay, Err: err}
}

// RetryDelayFromDetails finds a google.rpc.RetryInfo entry in a JSON error
// payload and returns its retryDelay. Every non-digit is dropped before the
// value is read as whole seconds, so "27s" and "27.5s" give 27s and 275s.
// Missing or unparsable values give zero.
func RetryDelayFromDetails(payload string) time.Duration {
	if payload == "" || !gjson.Valid(payload) {
		return 0
	}
	for _, path := range detailPaths {
		details := gjson.Get(payload, path)
		if !details.IsArray() {
			continue
		}
		var delay time.Duration
		details.ForEach(func(_, detail gjson.Result) bool {
			if !isRetryInfo(detail) {
				return true
			}
			delay = secondsFromDigits(detail.Get("retryDelay").String())
			return false
		})
		if delay > 0 {
			return delay
		}
	}
	return 0
}

func isRetryInfo(detail gjson.Result) bool {
	found := false
	detail.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "@type" {
			found = value.String() == retryInfoType
			return false
		}
		return true
	})
	return found
}

func secondsFromDigits(value string) time.Duration {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || n <= 0 || n > maxDelaySeconds {
		return 0
	}
	return time.Duration(n) * time.Second
}

func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds > 0 {
		if seconds > maxDelaySeconds {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func responseHeader(resp *http.Response) http.Header {
	if resp == nil {
		return nil
	}
	return resp.Header
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted")
}
