package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteManifest(t *testing.T) {
	routes := RouteManifest()

	assert.Equal(t, []string{"GET"}, routes["/api/kols"])
	assert.Equal(t, []string{"GET", "POST"}, routes["/api/tracked-kols"])
	assert.Equal(t, []string{"DELETE", "PATCH"}, routes["/api/tracked-stocks/:symbol"])
	assert.Equal(t, []string{"DELETE", "POST"}, routes["/api/users/:id/follow"])
	assert.Equal(t, []string{"GET", "PUT"}, routes["/api/users/me"])
	assert.Contains(t, routes, "/api/portfolio/holdings")
	assert.Contains(t, routes, "/health/ready")

	// Production manifests never expose the monitor dashboard.
	assert.NotContains(t, routes, "/api/metrics/dashboard")
	for path, methods := range routes {
		assert.NotContains(t, methods, "HEAD", path)
	}
}
