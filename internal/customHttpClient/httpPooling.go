package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/FlashRAG/internal/config"
)

var once sync.Once
var pooledClient *http.Client

// GetPooledClient returns the shared keep-alive http client handed to the
// genai SDK. Embedding and classifier calls go through the same pool.
func GetPooledClient() *http.Client {
	once.Do(func() {
		pooledClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
			},
		}
	})
	return pooledClient
}
