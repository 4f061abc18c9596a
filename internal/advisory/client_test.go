package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsight(t *testing.T) {
	require := require.New(t)

	var got InsightRequest
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, auth = r.URL.Path, r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(Insight{Text: "Most of the group can make mid March.", Suggestions: []string{"w1"}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret", Timeout: time.Second})
	insight, err := c.Insight(context.Background(), InsightRequest{
		TripID: "trip-1", Phase: "COLLECTING", TotalTravelers: 4, ThresholdNeeded: 2,
		Windows: []WindowSummary{{ID: "w1", StartDate: "2025-03-10", EndDate: "2025-03-15", Precision: "exact", WindowType: "available", SupportCount: 3}},
	})
	require.NoError(err)
	require.Equal("Most of the group can make mid March.", insight.Text)
	require.Equal([]string{"w1"}, insight.Suggestions)
	require.Equal("/v1/schedule-insight", path)
	require.Equal("Bearer secret", auth)
	require.Equal("trip-1", got.TripID)
	require.Len(got.Windows, 1)
}

func TestInsightAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Insight(context.Background(), InsightRequest{TripID: "trip-1"})
	require.ErrorContains(t, err, "status 503")
	require.ErrorContains(t, err, "overloaded")
}
