// Package main provides a CLI to check API route compatibility with the dashboard.
//
//	api-compat dump -out routes.yml
//	api-compat check -base routes.yml [-revision other.yml]
//
// check compares against the routes this binary registers when -revision is empty.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"kolboard/internal/server"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Routes map[string][]string `yaml:"routes"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "dump":
		fs := flag.NewFlagSet("dump", flag.ExitOnError)
		out := fs.String("out", "", "write the manifest here instead of stdout")
		_ = fs.Parse(os.Args[2:])

		raw, err := yaml.Marshal(manifest{Routes: server.RouteManifest()})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode manifest: %v\n", err)
			os.Exit(1)
		}
		if *out == "" {
			_, _ = os.Stdout.Write(raw)
			return
		}
		if err := os.WriteFile(*out, raw, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write manifest: %v\n", err)
			os.Exit(1)
		}
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		basePath := fs.String("base", "", "base route manifest path")
		revisionPath := fs.String("revision", "", "revision route manifest path (default: current routes)")
		_ = fs.Parse(os.Args[2:])

		if strings.TrimSpace(*basePath) == "" {
			usage()
		}
		base, err := loadManifest(*basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load base manifest: %v\n", err)
			os.Exit(1)
		}
		revision := manifest{Routes: server.RouteManifest()}
		if *revisionPath != "" {
			if revision, err = loadManifest(*revisionPath); err != nil {
				fmt.Fprintf(os.Stderr, "failed to load revision manifest: %v\n", err)
				os.Exit(1)
			}
		}

		issues := compare(base, revision)
		if len(issues) > 0 {
			fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "- %s\n", issue)
			}
			os.Exit(1)
		}
		fmt.Println("route compatibility check passed")
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: api-compat dump [-out <path>] | check -base <path> [-revision <path>]")
	os.Exit(2)
}

func loadManifest(path string) (manifest, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, err
	}
	return parseManifest(raw)
}

func parseManifest(raw []byte) (manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return manifest{}, err
	}
	if m.Routes == nil {
		return manifest{}, errors.New("missing top-level routes field")
	}
	for path, methods := range m.Routes {
		for i, method := range methods {
			methods[i] = strings.ToUpper(strings.TrimSpace(method))
		}
		m.Routes[path] = methods
	}
	return m, nil
}

// compare reports routes the dashboard may call that revision no longer serves.
// Added routes are compatible.
func compare(base, revision manifest) []string {
	var issues []string

	for path, baseMethods := range base.Routes {
		revMethods, ok := revision.Routes[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}
		for _, method := range baseMethods {
			if !slices.Contains(revMethods, method) {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", method, path))
			}
		}
	}

	sort.Strings(issues)
	return issues
}
