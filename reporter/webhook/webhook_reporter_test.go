package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/ledger"
	"github.com/solwatch/shredscan/reporter"
	"github.com/solwatch/shredscan/scan"
)

func testDetection() *scan.Detection {
	var token ledger.Pubkey
	token[0] = 0xBB
	return &scan.Detection{Rule: "pumpfun_create", Token: token, Seq: 12}
}

func TestReportPosts(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotBody, _ = io.ReadAll(req.Body)
		gotAuth = req.Header.Get("Authorization")
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r, err := NewWebhookReporter(&WebhookReporterCfg{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), testDetection()))

	var rec reporter.Record
	require.NoError(t, json.Unmarshal(gotBody, &rec))
	assert.Equal(t, "pumpfun_create", rec.Rule)
	assert.Equal(t, "bb", rec.Token[:2])
	assert.Equal(t, "Bearer token", gotAuth)
}

func TestReportRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r, err := NewWebhookReporter(&WebhookReporterCfg{URL: srv.URL, MaxRetries: 3})
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), testDetection()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestReportExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r, err := NewWebhookReporter(&WebhookReporterCfg{URL: srv.URL, MaxRetries: 1})
	require.NoError(t, err)

	assert.Error(t, r.Report(context.Background(), testDetection()))
}

func TestCfgValidate(t *testing.T) {
	assert.Error(t, (&WebhookReporterCfg{}).Validate())
	assert.Error(t, (&WebhookReporterCfg{URL: "u", MaxRetries: -1}).Validate())
	assert.NoError(t, (&WebhookReporterCfg{URL: "u"}).Validate())
}
