package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/resilience"
	"github.com/sells-group/salgsmotor/pkg/jina"
	jinamocks "github.com/sells-group/salgsmotor/pkg/jina/mocks"
)

func TestSocialProbe_Unverified(t *testing.T) {
	t.Parallel()
	presence, ok := NewSocialProbe(nil).Probe(context.Background(), "Fjord Frisør AS").Get()
	require.True(t, ok)
	assert.Len(t, presence, len(SocialPlatforms))
	for _, status := range presence {
		assert.Equal(t, StatusUnverified, status)
	}
	assert.False(t, HasFoundProfile(presence))
}

func TestSocialProbe_Search(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var sites []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get("site")
		mu.Lock()
		sites = append(sites, site)
		mu.Unlock()
		switch site {
		case "linkedin.com":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(jina.SearchResponse{Code: 200, Data: []jina.SearchResult{
				{URL: "https://www.facebook.com/elsewhere"},
				{URL: "https://no.linkedin.com/company/fjord-frisor"},
			}})
		case "facebook.com":
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			http.Error(w, "bad query", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	search := jina.NewClient("test-key", jina.WithSearchBaseURL(srv.URL), jina.WithRetryConfig(resilience.RetryConfig{MaxAttempts: 1}))
	presence, ok := NewSocialProbe(search).Probe(context.Background(), " Fjord Frisør AS ").Get()
	require.True(t, ok)
	assert.Equal(t, "found: https://no.linkedin.com/company/fjord-frisor", presence["linkedin.com"])
	assert.Equal(t, StatusNotFound, presence["facebook.com"])
	assert.True(t, strings.HasPrefix(presence["instagram.com"], StatusSearchFailed), presence["instagram.com"])
	assert.True(t, HasFoundProfile(presence))
	assert.Equal(t, SocialPlatforms, sites, "one site-filtered search per platform")
}

func TestSocialProbe_EmptyName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.StateFailed, NewSocialProbe(nil).Probe(context.Background(), "  ").State())
}

func TestOnPlatform(t *testing.T) {
	t.Parallel()
	assert.True(t, onPlatform("https://facebook.com/x", "facebook.com"))
	assert.True(t, onPlatform("https://m.facebook.com/x", "facebook.com"))
	assert.False(t, onPlatform("https://notfacebook.com/x", "facebook.com"))
	assert.False(t, onPlatform("://bad", "facebook.com"))
}

func TestListingsProbe(t *testing.T) {
	t.Parallel()
	const base = "https://www.gulesider.no"
	page := `<html><body>
<a href="/bedrift/923609016/kart">Kart</a>
<a href="https://www.gulesider.no/bedrift/923609016/anmeldelser">Anmeldelser</a>
<a href="https://www.fjordfrisor.no">Nettside</a>
<a href="https://www.facebook.com/fjordfrisor">Facebook</a>
</body></html>`
	f := newFakeFetcher().
		html(base+"/bedrift/923609016", 200, page).
		html(base+"/bedrift/987654321", 200, "<html><body><a href='/hjem'>Hjem</a></body></html>").
		html(base+"/bedrift/111111111", 404, "")
	p := NewListingsProbe(f, base)

	listings, ok := p.Probe(context.Background(), "923609016").Get()
	require.True(t, ok)
	assert.Equal(t, map[string]string{ListingWebsiteKey: "https://www.fjordfrisor.no"}, listings)

	listings, ok = p.Probe(context.Background(), "987654321").Get()
	require.True(t, ok)
	assert.Empty(t, listings)

	assert.Equal(t, "unexpected status 404", p.Probe(context.Background(), "111111111").Reason())
}

func TestNewsProbe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ReasonNotConfigured, NewNewsProbe(nil).Probe(context.Background(), "Fjord Frisør AS").Reason())

	results := make([]jina.SearchResult, 0, 8)
	results = append(results, jina.SearchResult{Title: "", URL: "https://bt.no/a"}, jina.SearchResult{Title: "no url"})
	for i := 0; i < 6; i++ {
		results = append(results, jina.SearchResult{Title: " Sak ", URL: "https://ba.no/" + string(rune('a'+i))})
	}
	search := jinamocks.NewMockClient(t)
	search.On("Search", mock.Anything, `"Fjord Frisør AS" nyheter`).Return(&jina.SearchResponse{Data: results}, nil).Once()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	p := NewNewsProbe(search)
	p.now = func() time.Time { return now }

	news, ok := p.Probe(context.Background(), "Fjord Frisør AS").Get()
	require.True(t, ok)
	require.Len(t, news.Items, MaxNewsItems)
	assert.Equal(t, model.NewsItem{Title: "https://bt.no/a", URL: "https://bt.no/a"}, news.Items[0])
	assert.Equal(t, "Sak", news.Items[1].Title)
	assert.Equal(t, now.UTC(), news.CheckedAt)
}

func TestNewsProbe_SearchError(t *testing.T) {
	t.Parallel()
	search := jinamocks.NewMockClient(t)
	search.On("Search", mock.Anything, mock.Anything).Return(nil, eris.New("boom")).Once()
	sec := NewNewsProbe(search).Probe(context.Background(), "Fjord Frisør AS")
	assert.Equal(t, model.StateFailed, sec.State())
	assert.Contains(t, sec.Reason(), "news search failed")
}
