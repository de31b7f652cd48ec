package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWebhookNotify(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := Notification{
		UserID:     42,
		Kind:       KindSlotAvailable,
		Message:    "Cupo disponible",
		ResourceID: 7,
		ExpiresAt:  time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewWebhook(srv.URL).Notify(context.Background(), n))
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, KindSlotAvailable, got.Kind)
	require.Equal(t, int64(7), got.ResourceID)
}

func TestWebhookNotifyFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Notify(context.Background(), Notification{UserID: 1, Kind: KindLoanApproved})
	require.Error(t, err)
}

func TestMultiReturnsFirstError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := Multi{Nop{}, NewWebhook(srv.URL), Nop{}}
	err := m.Notify(context.Background(), Notification{UserID: 1, Kind: KindLoanApproved})
	require.Error(t, err)

	require.NoError(t, Multi{Nop{}, Nop{}}.Notify(context.Background(), Notification{UserID: 1}))
}
