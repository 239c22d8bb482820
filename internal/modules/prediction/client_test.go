package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farecast/internal/modules/trip"
)

var sampleRequest = trip.Request{
	PickupDatetime:   "2024-05-01 08:30:00",
	PickupLongitude:  -73.9876,
	PickupLatitude:   40.7484,
	DropoffLongitude: -73.9352,
	DropoffLatitude:  40.7306,
	PassengerCount:   2,
}

func TestClient_Predict(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		_, _ = w.Write([]byte(`{"predicted_fare":47.5,"explanation":"Because.","recommendation":"Go now."}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/"}, nil)
	res, err := c.Predict(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Equal(t, Result{PredictedFare: 47.5, Explanation: "Because.", Recommendation: "Go now."}, res)

	assert.Equal(t, map[string]any{
		"pickup_datetime":   "2024-05-01 08:30:00",
		"pickup_longitude":  -73.9876,
		"pickup_latitude":   40.7484,
		"dropoff_longitude": -73.9352,
		"dropoff_latitude":  40.7306,
		"passenger_count":   2.0,
	}, <-bodies)
}

func TestClient_Predict_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Prediction error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil).Predict(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.Equal(t, "API request failed with status 500", err.Error())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.StatusCode)
}

func TestClient_Predict_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, nil).Predict(context.Background(), sampleRequest)
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "prediction request")
}

func TestClient_Predict_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil).Predict(context.Background(), sampleRequest)
	assert.ErrorContains(t, err, "decode prediction response")
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil).Predict(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, BreakerFailures: 2, BreakerCooldown: time.Minute}, nil)
	for i := 0; i < 2; i++ {
		_, err := c.Predict(context.Background(), sampleRequest)
		assert.Equal(t, "API request failed with status 503", err.Error())
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.Predict(context.Background(), sampleRequest)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, BreakerFailures: 1}, nil)
	for i := 0; i < 3; i++ {
		_, err := c.Predict(context.Background(), sampleRequest)
		assert.Equal(t, "API request failed with status 422", err.Error())
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClient_Health(t *testing.T) {
	var unhealthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if unhealthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	assert.NoError(t, c.Health(context.Background()))
	assert.Equal(t, "disabled", c.BreakerState())

	unhealthy.Store(true)
	assert.EqualError(t, c.Health(context.Background()), "API request failed with status 500")
}
