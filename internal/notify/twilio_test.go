package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) (*TwilioSender, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewTwilioSender("AC123", "secret", "+15550009999", nil)
	require.NotNil(t, s)
	s.baseURL = srv.URL
	s.retryDelay = 0
	return s, srv
}

func TestTwilioSender_SendSMS(t *testing.T) {
	s, _ := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001111", r.PostForm.Get("To"))
		assert.Equal(t, "+15550009999", r.PostForm.Get("From"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	require.NoError(t, s.SendSMS(context.Background(), "+15550001111", "hello"))
}

func TestTwilioSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s, _ := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, s.SendSMS(context.Background(), "+15550001111", "hello"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTwilioSender_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	s, _ := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	})

	err := s.SendSMS(context.Background(), "bogus", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 21211")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTwilioSender_ValidatesInput(t *testing.T) {
	s, _ := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	assert.Error(t, s.SendSMS(context.Background(), "", "hello"))
	assert.Error(t, s.SendSMS(context.Background(), "+1555", "   "))
}

func TestNewTwilioSender_RequiresCredentials(t *testing.T) {
	assert.Nil(t, NewTwilioSender("", "secret", "+1", nil))
	assert.Nil(t, NewTwilioSender("AC1", "", "+1", nil))
}

func TestFormatTwilioError(t *testing.T) {
	assert.Equal(t, "status 500", formatTwilioError(500, nil))
	assert.Equal(t, "status 400: Bad", formatTwilioError(400, []byte(`{"message":"Bad"}`)))
	assert.True(t, strings.HasPrefix(formatTwilioError(502, []byte("gateway")), "status 502: gateway"))
}
