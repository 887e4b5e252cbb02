package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evanofslack/nmcli-sync/internal/params"
)

// Source yields the declared connections.
type Source interface {
	Connections(ctx context.Context) ([]params.Connection, error)
}

type document struct {
	Connections []params.Connection `yaml:"connections"`
}

type files struct {
	paths []string
}

// NewFiles reads connection definitions from YAML files. A directory path
// contributes every *.yaml and *.yml file in it, in lexical order.
func NewFiles(paths ...string) Source {
	return &files{paths: paths}
}

func (f *files) Connections(ctx context.Context) ([]params.Connection, error) {
	conns := []params.Connection{}
	seen := make(map[string]string)

	for _, path := range f.paths {
		files, err := expand(path)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			doc, err := load(file)
			if err != nil {
				return nil, err
			}
			for _, conn := range doc.Connections {
				if conn.Name != "" {
					if prev, ok := seen[conn.Name]; ok {
						return nil, fmt.Errorf("connection %q defined in both %s and %s", conn.Name, prev, file)
					}
					seen[conn.Name] = file
				}
				if conn.State == "" {
					conn.State = params.StatePresent
				}
				conns = append(conns, conn)
			}
			slog.Debug("Loaded connection definitions", "file", file, "count", len(doc.Connections))
		}
	}
	return conns, nil
}

func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat connection source: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read connection directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		out = append(out, filepath.Join(path, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func load(file string) (document, error) {
	f, err := os.Open(file)
	if err != nil {
		return document{}, err
	}
	defer f.Close()

	var doc document
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return document{}, fmt.Errorf("parse %s: %w", file, err)
	}
	return doc, nil
}
