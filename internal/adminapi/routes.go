package adminapi

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"github.com/omarluq/mapping-engine/internal/enginehealth"
)

func handleDebugHealth(tracker *enginehealth.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			http.Error(w, "health tracker not configured", http.StatusServiceUnavailable)
			return
		}

		snap := tracker.Snapshot()
		body := []byte("{}")
		var err error
		body, err = sjson.SetBytes(body, "dispatcher_queue_depth", snap.DispatcherQueueDepth)
		if err == nil {
			body, err = sjson.SetBytes(body, "resolver_counts", snap.ResolverCounts)
		}
		if err == nil {
			body, err = sjson.SetBytes(body, "source_circuits", snap.SourceCircuits)
		}
		if err != nil {
			log.Error().Err(err).Str("request_id", requestIDFromContext(r.Context())).
				Msg("adminapi: failed to build debug health response")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func handleDebugMappings(inspector Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inspector == nil {
			http.Error(w, "inspector not configured", http.StatusServiceUnavailable)
			return
		}
		requestID := requestIDFromContext(r.Context())

		body := []byte("[]")
		for i, m := range inspector.Snapshot() {
			entry := []byte("{}")
			var err error
			entry, err = sjson.SetBytes(entry, "id", m.ID().String())
			if err != nil {
				log.Error().Err(err).Str("request_id", requestID).Int("index", i).
					Msg("adminapi: failed to encode mapping id")
				continue
			}

			props, resolveErr := m.Resolve()
			if resolveErr != nil {
				entry, err = sjson.SetBytes(entry, "error", resolveErr.Error())
			} else {
				keys := make([]string, 0, len(props))
				for k := range props {
					keys = append(keys, k)
				}
				entry, err = sjson.SetBytes(entry, "property_keys", keys)
			}
			if err != nil {
				log.Error().Err(err).Str("request_id", requestID).Int("index", i).
					Msg("adminapi: failed to encode mapping detail")
				continue
			}

			body, err = sjson.SetRawBytes(body, "-1", entry)
			if err != nil {
				log.Error().Err(err).Str("request_id", requestID).Int("index", i).
					Msg("adminapi: failed to append mapping entry")
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}
