package giftclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveCall(op, result string, _ time.Duration) {
	r.calls = append(r.calls, op+":"+result)
}

func TestClient_Lookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    *LookupResult
		wantErr error
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"staff_pass_id":"S1","team_name":"Falcons","created_at":"2024-01-01T00:00:00Z"}`,
			want:   &LookupResult{StaffPassID: "S1", TeamName: "Falcons", CreatedAt: "2024-01-01T00:00:00Z"},
		},
		{
			name:   "unexpected shapes pass through",
			status: http.StatusOK,
			body:   `{"staff_pass_id":"S1","team_name":null,"created_at":1623772799000,"extra":true}`,
			want:   &LookupResult{StaffPassID: "S1", CreatedAt: "1623772799000"},
		},
		{
			name:   "non object body",
			status: http.StatusOK,
			body:   `["S1"]`,
			want:   &LookupResult{},
		},
		{
			name:   "empty object",
			status: http.StatusOK,
			body:   `{}`,
			want:   &LookupResult{},
		},
		{name: "null body", status: http.StatusOK, body: `null`},
		{name: "false body", status: http.StatusOK, body: `false`},
		{name: "zero body", status: http.StatusOK, body: `0.0`},
		{name: "empty string body", status: http.StatusOK, body: `""`},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"error":"error looking up staff pass: record not found"}`,
			wantErr: ErrResponseNotOK,
		},
		{
			name:    "server error with html body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: ErrResponseNotOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := New(srv.URL, nil).Lookup(context.Background(), "S1")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_LookupSendsIdentifierVerbatim(t *testing.T) {
	t.Parallel()

	seen := make(chan [2]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- [2]string{r.URL.Path, r.URL.Query().Get("staff_pass_id")}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Lookup(context.Background(), " STAFF&1 ")
	require.NoError(t, err)
	got := <-seen
	assert.Equal(t, "/lookup", got[0])
	assert.Equal(t, " STAFF&1 ", got[1])
}

func TestClient_LookupInvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Lookup(context.Background(), "S1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrResponseNotOK))
}

func TestClient_Redeem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    RedemptionOutcome
		wantErr bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"team_name":"Falcons","redeemed_at":"2024-01-01T00:00:00Z"}`,
			want:   Redeemed{TeamName: "Falcons", RedeemedAt: "2024-01-01T00:00:00Z"},
		},
		{
			name:   "failure payload on error status",
			status: http.StatusBadRequest,
			body:   `{"error":"Already redeemed"}`,
			want:   RedemptionFailed{Message: "Already redeemed"},
		},
		{
			name:   "failure payload on ok status",
			status: http.StatusOK,
			body:   `{"error":"Already redeemed"}`,
			want:   RedemptionFailed{Message: "Already redeemed"},
		},
		{
			name:   "error key wins over success fields",
			status: http.StatusOK,
			body:   `{"team_name":"Falcons","error":""}`,
			want:   RedemptionFailed{Message: ""},
		},
		{
			name:   "success body on error status",
			status: http.StatusInternalServerError,
			body:   `{"team_name":"Falcons","redeemed_at":"x"}`,
			want:   Redeemed{TeamName: "Falcons", RedeemedAt: "x"},
		},
		{
			name:    "non json body",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantErr: true,
		},
		{
			name:   "null body",
			status: http.StatusOK,
			body:   `null`,
			want:   nil,
		},
		{
			name:   "false body on error status",
			status: http.StatusInternalServerError,
			body:   `false`,
			want:   nil,
		},
		{
			name:    "json but not an object",
			status:  http.StatusOK,
			body:    `"redeemed"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := New(srv.URL, nil).Redeem(context.Background(), "S1")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_RedeemRequestShape(t *testing.T) {
	t.Parallel()

	type seenRequest struct {
		method, path, contentType string
		payload                   map[string]string
	}
	seen := make(chan seenRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := seenRequest{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")}
		_ = json.NewDecoder(r.Body).Decode(&got.payload)
		seen <- got
		_, _ = io.WriteString(w, `{"team_name":"BASS","redeemed_at":"2024-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Redeem(context.Background(), "STAFF_H123804820G")
	require.NoError(t, err)
	got := <-seen
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/redemption", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, map[string]string{"staff_pass_id": "STAFF_H123804820G"}, got.payload)
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c := New(base, obs)

	_, err := c.Lookup(context.Background(), "S1")
	require.Error(t, err)
	_, err = c.Redeem(context.Background(), "S1")
	require.Error(t, err)
	require.Error(t, c.Health(context.Background()))

	assert.Equal(t, []string{"lookup:error", "redeem:error"}, obs.calls)
}

func TestClient_ObservesCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/lookup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"error":"nope"}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(srv.URL, obs)
	_, _ = c.Lookup(context.Background(), "S1")
	_, _ = c.Redeem(context.Background(), "S1")

	assert.Equal(t, []string{"lookup:error", "redeem:ok"}, obs.calls)
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	require.NoError(t, c.Health(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	require.Error(t, c.Health(context.Background()))
}
