package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCast/internal/domain/repository"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","longName":"Apple Inc.","exchangeTimezoneName":"America/New_York"},
"timestamp":[1709217000,1709303400,1709562600],
"indicators":{"quote":[{"close":[180.75,null,179.66]}]}}],"error":null}}`

const profileBody = `{"quoteSummary":{"result":[{"assetProfile":{"sector":"Technology","industry":"Consumer Electronics","country":"United States"}}],"error":null}}`

// yahooServer serves chart and asset profile; a zero profileStatus answers
// the profile with profileBody.
func yahooServer(t *testing.T, profileStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			if r.URL.Query().Get("interval") != "1d" || r.URL.Query().Get("range") != "max" {
				t.Errorf("unexpected request %s", r.URL)
			}
			_, _ = w.Write([]byte(chartBody))
		case "/v10/finance/quoteSummary/AAPL":
			if r.URL.Query().Get("modules") != "assetProfile" {
				t.Errorf("unexpected request %s", r.URL)
			}
			if profileStatus != 0 {
				w.WriteHeader(profileStatus)
				return
			}
			_, _ = w.Write([]byte(profileBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestHistoryParsesChart(t *testing.T) {
	srv := yahooServer(t, 0)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil)
	p, err := c.History(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if p.Name != "Apple Inc." {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if p.Sector != "Technology" || p.Industry != "Consumer Electronics" {
		t.Fatalf("unexpected classification %q / %q", p.Sector, p.Industry)
	}
	if len(p.History) != 2 {
		t.Fatalf("expected null bar skipped, got %d points", len(p.History))
	}
	if got := p.History[0].Date.Format(time.DateOnly); got != "2024-02-29" {
		t.Fatalf("first session %s", got)
	}
	if p.History[1].Close != 179.66 {
		t.Fatalf("unexpected close %v", p.History[1].Close)
	}
}

func TestHistoryWithoutAssetProfile(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		srv := yahooServer(t, status)
		p, err := New(Config{BaseURL: srv.URL}, nil).History(context.Background(), "AAPL")
		srv.Close()
		if err != nil {
			t.Fatalf("profile %d failed the history: %v", status, err)
		}
		if p.Sector != "" || p.Industry != "" {
			t.Fatalf("profile %d: unexpected classification %q / %q", status, p.Sector, p.Industry)
		}
		if p.Name != "Apple Inc." || len(p.History) != 2 {
			t.Fatalf("profile %d: unexpected profile %+v", status, p)
		}
	}
}

func TestHistoryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}, nil).History(context.Background(), "NOPE")
	var fe *repository.FetchError
	if !errors.As(err, &fe) || !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not-found FetchError, got %v", err)
	}
}

func TestHistoryUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}, nil).History(context.Background(), "AAPL")
	var fe *repository.FetchError
	if !errors.As(err, &fe) || errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected generic FetchError, got %v", err)
	}
}
