package server

import (
	"slices"
	"strings"

	"kolboard/internal/config"

	"github.com/gofiber/fiber/v2"
)

// RouteManifest lists every registered API path with its sorted methods.
// HEAD routes fiber adds for each GET are left out.
func RouteManifest() map[string][]string {
	s := &Server{config: &config.Config{Env: "production"}}
	app := fiber.New()
	s.SetupRoutes(app)

	out := make(map[string][]string)
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead {
			continue
		}
		path := r.Path
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		if !slices.Contains(out[path], r.Method) {
			out[path] = append(out[path], r.Method)
		}
	}
	for path := range out {
		slices.Sort(out[path])
	}
	return out
}
