package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBrowser(opts ...BrowserOption) *Browser {
	return NewBrowser(append([]BrowserOption{WithGate(NewGate(WithAllowedHosts("127.0.0.1")))}, opts...)...)
}

func TestBrowser_SendsBrowserHeaders(t *testing.T) {
	t.Parallel()
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("x", 3000) + "</body></html>"))
	}))
	defer srv.Close()

	page, err := testBrowser().Fetch(context.Background(), srv.URL+"/company/923609016")
	require.NoError(t, err)
	assert.True(t, page.OK())
	assert.Equal(t, "/company/923609016", page.URL.Path)
	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "no,en;q=0.5", got.Get("Accept-Language"))
	assert.Equal(t, "1", got.Get("DNT"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
}

func TestBrowser_ReturnsNon2xxPages(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<h1>Ikke funnet</h1>"))
	}))
	defer srv.Close()

	page, err := testBrowser().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, page.OK())
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
}

func TestBrowser_Blocked(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cf-Ray", "8a1b")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testBrowser().Fetch(context.Background(), srv.URL)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked), "got %v", err)
	assert.Equal(t, BlockCloudflare, blocked.Type)
}

func TestBrowser_RejectsUnsafeWithoutRequest(t *testing.T) {
	t.Parallel()
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer srv.Close()

	_, err := NewBrowser().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnsafeURL)
	assert.Zero(t, hits)
}

func TestBrowser_RedirectToPrivateAddressRejected(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data", http.StatusFound)
	}))
	defer srv.Close()

	_, err := testBrowser().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnsafeURL)
}

func TestBrowser_CapsBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		chunk := []byte(strings.Repeat("a", 1<<20))
		for range 6 {
			_, _ = w.Write(chunk)
		}
	}))
	defer srv.Close()

	page, err := testBrowser().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, page.Body, MaxBodyBytes)
}

func TestBrowser_Timeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-release }))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := testBrowser(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBrowser_DialRejectsPrivateAddress(t *testing.T) {
	t.Parallel()
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer srv.Close()

	// A hostname that resolves to loopback passes Check; the dial must not.
	tr, ok := NewBrowser().client.Transport.(*http.Transport)
	require.True(t, ok)
	_, err := tr.DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	assert.ErrorIs(t, err, ErrUnsafeURL)
	assert.Zero(t, hits)

	conn, err := testBrowser().client.Transport.(*http.Transport).DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	require.NoError(t, err, "allowed hosts may be dialed")
	_ = conn.Close()
}
