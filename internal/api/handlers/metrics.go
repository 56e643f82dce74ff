package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"opssight/internal/engine/webhooks"
)

// MetricsHandler exposes webhook counters in text exposition format.
type MetricsHandler struct {
	stats *webhooks.Stats
}

func NewMetricsHandler(stats *webhooks.Stats) *MetricsHandler {
	return &MetricsHandler{stats: stats}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "# HELP opssight_up Is the server up\n")
	fmt.Fprintf(w, "# TYPE opssight_up gauge\n")
	fmt.Fprintf(w, "opssight_up 1\n")

	fmt.Fprintf(w, "# HELP opssight_webhook_events_total Processed webhook events\n")
	fmt.Fprintf(w, "# TYPE opssight_webhook_events_total counter\n")
	fmt.Fprintf(w, "opssight_webhook_events_total %d\n", snap.TotalEvents)

	types := make([]string, 0, len(snap.EventTypes))
	for t := range snap.EventTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "opssight_webhook_events_total{event=%q} %d\n", t, snap.EventTypes[t])
	}
}
