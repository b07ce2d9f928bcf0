package waitfor

import (
	"bytes"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_URLValidation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http URL", "http://localhost:8080", false},
		{"https URL", "https://service.example.org", false},
		{"missing scheme", "localhost:8080/foo", true},
		{"bare host", "localhost", true},
		{"unsupported scheme", "ftp://example.com", true},
		{"unparseable", "://nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative timeout", WithTimeout(-1)},
		{"zero interval", WithInterval(0)},
		{"negative interval", WithInterval(-time.Second)},
		{"zero request timeout", WithRequestTimeout(0)},
		{"nil progress writer", WithProgressWriter(nil)},
		{"nil error writer", WithErrorWriter(nil)},
		{"nil logger", WithLogger(nil)},
		{"nil clock", WithClock(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("http://localhost:8080", tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	w, err := New("http://localhost:8080")
	require.NoError(t, err)

	assert.Equal(t, 0, w.timeout, "default is to wait forever")
	assert.Equal(t, defaultInterval, w.interval)
	assert.Equal(t, defaultRequestTimeout, w.requestTimeout)
	assert.False(t, w.verbose)
	assert.NotNil(t, w.logger)
	assert.NotNil(t, w.clock)
}

func TestNew_OptionsApplied(t *testing.T) {
	var buf bytes.Buffer
	mClock := quartz.NewMock(t)

	w, err := New("http://localhost:8080",
		WithTimeout(300),
		WithAPIKey("key=abc"),
		WithInterval(500*time.Millisecond),
		WithRequestTimeout(2*time.Second),
		WithVerbose(true),
		WithProgressWriter(&buf),
		WithErrorWriter(&buf),
		WithClock(mClock),
	)
	require.NoError(t, err)

	assert.Equal(t, 300, w.timeout)
	assert.Equal(t, "key=abc", w.apiKey)
	assert.Equal(t, 500*time.Millisecond, w.interval)
	assert.Equal(t, 2*time.Second, w.requestTimeout)
	assert.True(t, w.verbose)
	assert.Equal(t, mClock, w.clock)
}
