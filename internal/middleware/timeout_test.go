// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode int
		wantBody string
	}{
		{
			name: "fast handler",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("ok"))
			},
			wantCode: http.StatusCreated,
			wantBody: "ok",
		},
		{
			name: "implicit 200 on first write",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("body"))
			},
			wantCode: http.StatusOK,
			wantBody: "body",
		},
		{
			name: "slow handler",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
				time.Sleep(5 * time.Millisecond)
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"message":"request timeout"}` + "\n",
		},
		{
			name: "response started before deadline",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				<-r.Context().Done()
			},
			wantCode: http.StatusAccepted,
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Timeout(20 * time.Millisecond)(tt.handler)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestTimeout_CancelsHandlerContext(t *testing.T) {
	errCh := make(chan error, 1)
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		errCh <- r.Context().Err()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("handler context was not cancelled")
	}
}

func TestTimeout_RepanicsHandlerPanic(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTimeoutWriter_DiscardsWritesAfterTimeout(t *testing.T) {
	rr := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rr, timedOut: true}

	tw.WriteHeader(http.StatusCreated)
	_, err := tw.Write([]byte("late"))

	require.True(t, errors.Is(err, http.ErrHandlerTimeout))
	assert.Equal(t, http.StatusOK, rr.Code, "recorder default, header never forwarded")
	assert.Zero(t, rr.Body.Len())
}

func TestTimeoutWriter_FirstHeaderWins(t *testing.T) {
	rr := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rr}

	tw.WriteHeader(http.StatusNoContent)
	tw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, tw.wroteHeader)
}
