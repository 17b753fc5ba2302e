package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/sight-client/pkg/client"
	"github.com/Sternrassler/sight-client/pkg/metrics"
	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/Sternrassler/sight-client/pkg/sight"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type server struct {
	api    *sight.Sight
	redis  *redis.Client
	logger zerolog.Logger
}

func newServer(api *sight.Sight, redisClient *redis.Client, logger zerolog.Logger) *server {
	return &server{api: api, redis: redisClient, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /v1/", s.listHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// readyHandler checks Redis when it is configured.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Redis not ready")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// listHandler aggregates /v1/{collection} into a flat JSON array.
func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/"), "/")

	params, err := parseListParams(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	pages, err := s.api.ListAllCollection(r.Context(), name, params)
	if err != nil {
		status := statusFor(err)
		s.logger.Error().
			Err(err).
			Str("collection", name).
			Int("status", status).
			Msg("Aggregation failed")
		writeJSONError(w, status, err.Error())
		return
	}

	records := pagination.Records(pages)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Sight-Pages", strconv.Itoa(len(pages)))
	w.Header().Set("X-Sight-Records", strconv.Itoa(len(records)))
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// parseListParams splits pagination controls from pass-through filters.
func parseListParams(query url.Values) (pagination.Params, error) {
	var params pagination.Params

	for key, target := range map[string]*int{
		pagination.KeyLimit:          &params.Limit,
		pagination.KeyTotalSafeLimit: &params.TotalSafeLimit,
	} {
		value := query.Get(key)
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return params, errors.Newf("%s must be a non-negative integer", key)
		}
		*target = n
	}

	params.Filters = pagination.RemoveReservedKeys(query, pagination.ReservedKeys...)
	return params, nil
}

// statusFor maps an aggregation error to a proxy status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sight.ErrUnknownCollection):
		return http.StatusNotFound
	case client.StatusCode(err) == http.StatusUnauthorized, client.StatusCode(err) == http.StatusForbidden:
		return http.StatusUnauthorized
	case client.StatusCode(err) == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
