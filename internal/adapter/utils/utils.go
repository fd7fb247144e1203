package utils

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// GetRouter returns the process-wide router. The metrics endpoint is mounted
// here, outside the middleware chain, so scrapes bypass auth and rate limits.
func GetRouter() *chi.Mux {
	once.Do(func() {
		router = chi.NewRouter()
		router.Handle("/metrics", promhttp.Handler())
	})

	return router
}
