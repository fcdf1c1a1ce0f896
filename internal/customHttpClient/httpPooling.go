package customHttpClient

import (
	"net/http"

	"github.com/akolanti/DocQA/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var pooledClient = &http.Client{Transport: customTransport}

// Pooled returns the shared connection-pooled client. The embedding and
// completion backends hit the same provider host repeatedly, so they reuse
// connections instead of paying the handshake on every call.
func Pooled() *http.Client {
	return pooledClient
}
