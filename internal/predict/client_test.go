package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = Image{Name: "leaf.jpg", MediaType: "image/jpeg", Data: []byte("\xff\xd8\xff fake jpeg")}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func requireClientError(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce), "expected *Error, got %T", err)
	return ce
}

func TestSubmit_Success(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict/", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "leaf.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		assert.Equal(t, testImage.Data, data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_class":"Tomato___Late_blight","confidence":0.83,"remedy":"**Overview**\nFungal."}`))
	})

	p, err := c.Submit(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, "Tomato___Late_blight", p.PredictedClass)
	assert.InDelta(t, 0.83, p.Confidence, 1e-9)
	assert.Equal(t, "**Overview**\nFungal.", p.Remedy)
}

func TestSubmit_ErrorDetail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"model unavailable"}`))
	})

	_, err := c.Submit(context.Background(), testImage)
	ce := requireClientError(t, err)
	assert.Equal(t, KindBusiness, ce.Kind)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Equal(t, "model unavailable", err.Error())
}

func TestSubmit_UnparsableErrorBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>Internal Server Error</html>`))
	})

	_, err := c.Submit(context.Background(), testImage)
	ce := requireClientError(t, err)
	assert.Equal(t, KindBusiness, ce.Kind)
	assert.Equal(t, "prediction failed: HTTP status 500", err.Error())
}

func TestSubmit_NonStringDetail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","file"],"msg":"field required"}]}`))
	})

	_, err := c.Submit(context.Background(), testImage)
	requireClientError(t, err)
	assert.Equal(t, "prediction failed: HTTP status 422", err.Error())
}

func TestSubmit_MissingDetail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	})

	_, err := c.Submit(context.Background(), testImage)
	assert.EqualError(t, err, "prediction failed: HTTP status 502")
}

func TestSubmit_MalformedSuccessBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.Submit(context.Background(), testImage)
	ce := requireClientError(t, err)
	assert.Equal(t, KindProtocol, ce.Kind)
	assert.NotEmpty(t, ce.Message)
}

func TestSubmit_RejectsOutOfSchemaPrediction(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty class", `{"predicted_class":"","confidence":0.5,"remedy":""}`},
		{"missing class", `{"confidence":0.5,"remedy":""}`},
		{"confidence above one", `{"predicted_class":"Apple___Scab","confidence":1.2,"remedy":""}`},
		{"negative confidence", `{"predicted_class":"Apple___Scab","confidence":-0.1,"remedy":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Submit(context.Background(), testImage)
			ce := requireClientError(t, err)
			assert.Equal(t, KindProtocol, ce.Kind)
		})
	}
}

func TestSubmit_AcceptsBoundaryConfidence(t *testing.T) {
	for _, body := range []string{
		`{"predicted_class":"Healthy","confidence":0,"remedy":""}`,
		`{"predicted_class":"Healthy","confidence":1,"remedy":""}`,
	} {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := c.Submit(context.Background(), testImage)
		assert.NoError(t, err, body)
	}
}

func TestSubmit_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Submit(context.Background(), testImage)
	ce := requireClientError(t, err)
	assert.Equal(t, KindTransport, ce.Kind)
	assert.Error(t, errors.Unwrap(err))
}

func TestSubmit_EmptyImageMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.Submit(context.Background(), Image{Name: "x.png", MediaType: "image/png"})
	ce := requireClientError(t, err)
	assert.Equal(t, KindInput, ce.Kind)
	assert.Zero(t, calls.Load())
}

func TestSubmit_OneRequestPerCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Submit(context.Background(), testImage)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBaseURL},
		{"  ", DefaultBaseURL},
		{"http://api.example.com/", "http://api.example.com"},
		{"http://api.example.com//", "http://api.example.com"},
		{"http://api.example.com", "http://api.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewClient(tt.in).BaseURL(), "NewClient(%q)", tt.in)
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"string detail", `{"detail":"bad image"}`, "bad image"},
		{"list detail", `{"detail":[{"msg":"x"}]}`, ""},
		{"null detail", `{"detail":null}`, ""},
		{"no detail", `{}`, ""},
		{"not json", `oops`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorDetail([]byte(tt.payload)), tt.name)
	}
}
