package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scoutagent/scout/internal/tools"
)

func TestGeocodeNoKeyFallback(t *testing.T) {
	t.Parallel()

	c := New("", "")
	for _, input := range []string{"London", "", "nowhere in particular"} {
		coords, err := c.Geocode(context.Background(), input)
		if err != nil {
			t.Fatalf("Geocode(%q) error: %v", input, err)
		}
		if coords.Lat != "51.1" || coords.Lng != "-0.1" {
			t.Errorf("Geocode(%q) = %v, want {51.1 -0.1}", input, coords)
		}
	}
}

func TestGeocodeUpstream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Paris" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "geo-key" {
			t.Errorf("api_key = %q", got)
		}
		w.Write([]byte(`[{"lat": "48.8566", "lon": "2.3522"}]`))
	}))
	defer srv.Close()

	c := New("geo-key", "", WithGeocodeURL(srv.URL), WithHTTPClient(srv.Client()))
	coords, err := c.Geocode(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}
	if coords.Lat != "48.8566" || coords.Lng != "2.3522" {
		t.Errorf("coords = %v", coords)
	}
}

func TestGeocodeNoMatchIsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New("geo-key", "", WithGeocodeURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.Geocode(context.Background(), "xyzzy")
	if err == nil {
		t.Fatal("expected error for empty result")
	}
	re, ok := tools.AsRetry(err)
	if !ok {
		t.Fatalf("error %v is not retryable", err)
	}
	if re.Hint != ErrNoLocation {
		t.Errorf("hint = %q", re.Hint)
	}
}

func TestGeocodeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("geo-key", "", WithGeocodeURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.Geocode(context.Background(), "London")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if _, ok := tools.AsRetry(err); ok {
		t.Error("transport failure must not be retryable")
	}
}

func TestCurrentNoKeyFallback(t *testing.T) {
	t.Parallel()

	c := New("", "")
	report, err := c.Current(context.Background(), 12.3, 45.6)
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if report.Temperature != "21 °C" {
		t.Errorf("temperature = %q, want 21 °C", report.Temperature)
	}
	if report.Description != "Sunny" {
		t.Errorf("description = %q, want Sunny", report.Description)
	}
}

func TestCurrentUpstream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "wx-key" {
			t.Errorf("apikey = %q", q.Get("apikey"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q", q.Get("units"))
		}
		if !strings.HasPrefix(q.Get("location"), "51.1,") {
			t.Errorf("location = %q", q.Get("location"))
		}
		w.Write([]byte(`{"data": {"values": {"temperatureApparent": 17.6, "weatherCode": 4001}}}`))
	}))
	defer srv.Close()

	c := New("", "wx-key", WithWeatherURL(srv.URL), WithHTTPClient(srv.Client()))
	report, err := c.Current(context.Background(), 51.1, -0.1)
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if report.Temperature != "18°C" {
		t.Errorf("temperature = %q, want 18°C (rounded)", report.Temperature)
	}
	if report.Description != "Rain" {
		t.Errorf("description = %q, want Rain", report.Description)
	}
}

func TestDescribeCode(t *testing.T) {
	t.Parallel()

	if got := DescribeCode(1000); got != "Clear, Sunny" {
		t.Errorf("DescribeCode(1000) = %q", got)
	}
	if got := DescribeCode(8000); got != "Thunderstorm" {
		t.Errorf("DescribeCode(8000) = %q", got)
	}
	if got := DescribeCode(9999); got != "Unknown" {
		t.Errorf("DescribeCode(9999) = %q, want Unknown", got)
	}
}

func TestCodeTableSize(t *testing.T) {
	t.Parallel()

	if len(codeLookup) != 23 {
		t.Errorf("code table has %d entries, want 23", len(codeLookup))
	}
}

func TestRegisteredTools(t *testing.T) {
	t.Parallel()

	r := tools.NewRegistry()
	RegisterTools(r, New("", ""))

	out := r.Invoke(context.Background(), "get_lat_lng", map[string]any{"location_description": "London"})
	if out.Kind != tools.OutcomeSuccess {
		t.Fatalf("get_lat_lng outcome = %v, err = %v", out.Kind, out.Err)
	}
	if !strings.Contains(out.Value, "51.1") {
		t.Errorf("value = %q", out.Value)
	}

	out = r.Invoke(context.Background(), "get_weather", map[string]any{"lat": 51.1, "lng": -0.1})
	if out.Kind != tools.OutcomeSuccess {
		t.Fatalf("get_weather outcome = %v, err = %v", out.Kind, out.Err)
	}
	if !strings.Contains(out.Value, "Sunny") || !strings.Contains(out.Value, "21") {
		t.Errorf("value = %q", out.Value)
	}

	// Stringified coordinates coerce before the handler runs.
	out = r.Invoke(context.Background(), "get_weather", map[string]any{"lat": "51.1", "lng": "-0.1"})
	if out.Kind != tools.OutcomeSuccess {
		t.Fatalf("stringified coords outcome = %v, err = %v", out.Kind, out.Err)
	}
}
