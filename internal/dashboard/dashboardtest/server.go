// Package dashboardtest serves a stand-in for the new dashboard page so
// verification runs can be exercised without the real frontend.
package dashboardtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Path is the route the stand-in page is served on
const Path = "/new-dashboard"

// Page controls which parts of the stand-in dashboard render.
type Page struct {
	// OmitFilters leaves out the filter bar so the first wait never succeeds.
	OmitFilters bool
	// RangeLabel is the text of the 30-day shortcut button.
	RangeLabel string
	// KPIDelay postpones the KPI card after the shortcut is clicked.
	KPIDelay time.Duration
}

// Server is an httptest.Server that records when each request arrived.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []time.Time
}

// NewServer starts a stand-in dashboard. Close it when done.
func NewServer(page Page) *Server {
	if page.RangeLabel == "" {
		page.RangeLabel = "Últimos 30 dias"
	}

	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, render(page))
	})
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, time.Now())
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// DashboardURL is the full URL of the stand-in page
func (s *Server) DashboardURL() string {
	return s.URL + Path
}

// Requests returns arrival times of every request served so far.
func (s *Server) Requests() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, len(s.requests))
	copy(out, s.requests)
	return out
}

func render(page Page) string {
	filters := `<div data-testid="dashboard-filters" class="filters">
      <button data-testid="date-range-picker" onclick="document.getElementById('shortcuts').style.display='block'">Período</button>
      <div id="shortcuts" style="display:none">
        <button onclick="showKPI()">  ` + page.RangeLabel + `  </button>
        <button>Ontem</button>
      </div>
    </div>`
	if page.OmitFilters {
		filters = ""
	}

	return `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="utf-8">
  <title>Dashboard</title>
  <style>
    body { font-family: sans-serif; margin: 0; }
    .filters { padding: 16px; background: #f4f4f5; }
    .kpi { margin: 16px; padding: 24px; border: 1px solid #ddd; height: 1600px; }
  </style>
</head>
<body>
  ` + filters + `
  <main id="kpis"></main>
  <script>
    function showKPI() {
      setTimeout(function () {
        var card = document.createElement('div');
        card.className = 'kpi';
        card.setAttribute('data-testid', 'kpi-faturamentoBruto');
        card.textContent = 'R$ 12.345,67';
        document.getElementById('kpis').appendChild(card);
      }, ` + fmt.Sprint(page.KPIDelay.Milliseconds()) + `);
    }
  </script>
</body>
</html>`
}
