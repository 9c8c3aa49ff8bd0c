// Package build compiles a set of schema documents into validators and their
// text artifacts.
//
// Documents whose name starts with the skip prefix ("definitions." by
// default) are shared value lists: they are registered for $ref resolution
// but produce no bundle. Every other document is resolved, parsed, compiled
// and projected independently, so they are processed concurrently.
package build

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/wqschema/artifact"
	"github.com/reoring/wqschema/fields"
	"github.com/reoring/wqschema/jsonschema"
	"github.com/reoring/wqschema/validator"
)

// Document is one named schema source. The name's extension selects the
// decoder: ".yaml" and ".yml" are YAML, everything else is JSON.
type Document struct {
	Name string
	Data []byte
}

// Bundle holds everything compiled from one document. The text artifacts are
// handed to the caller; writing them anywhere is not this package's business.
type Bundle struct {
	Name        string
	Validator   *validator.Validator
	Fields      []fields.FieldDescriptor
	CSV         string
	TableSchema []byte
	SQL         string
	// JSONSchema is the dereferenced schema document.
	JSONSchema []byte
}

// LoadDocuments reads every file in fsys matching pattern (fs.Glob syntax).
func LoadDocuments(fsys fs.FS, pattern string) ([]Document, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	docs := make([]Document, 0, len(names))
	for _, n := range names {
		data, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, fmt.Errorf("build: %s: %w", n, err)
		}
		docs = append(docs, Document{Name: n, Data: data})
	}
	return docs, nil
}

// Run compiles docs and returns one bundle per compiled document, in input
// order. The first failure cancels the remaining work and is returned.
func Run(ctx context.Context, docs []Document, cfg Config, log *zap.Logger) ([]Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	loader := jsonschema.MapLoader{}
	decoded := make([]*jsonschema.Map, len(docs))
	var targets []int
	for i, d := range docs {
		m, err := decode(d)
		if err != nil {
			return nil, fmt.Errorf("build: %s: %w", d.Name, err)
		}
		decoded[i] = m
		loader[d.Name] = m
		loader[path.Base(d.Name)] = m
		if strings.HasPrefix(path.Base(d.Name), cfg.SkipPrefix) {
			log.Debug("skip shared document", zap.String("doc", d.Name))
			continue
		}
		targets = append(targets, i)
	}

	out := make([]Bundle, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for slot, i := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := compileOne(docs[i].Name, decoded[i], loader, cfg, log)
			if err != nil {
				return fmt.Errorf("build: %s: %w", docs[i].Name, err)
			}
			out[slot] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func decode(d Document) (*jsonschema.Map, error) {
	switch strings.ToLower(path.Ext(d.Name)) {
	case ".yaml", ".yml":
		return jsonschema.DecodeYAML(d.Data)
	}
	return jsonschema.Decode(d.Data)
}

func compileOne(name string, root *jsonschema.Map, loader jsonschema.Loader, cfg Config, log *zap.Logger) (Bundle, error) {
	resolved, err := jsonschema.Resolve(root, jsonschema.ResolveOptions{Loader: loader, URI: path.Base(name)})
	if err != nil {
		return Bundle{}, err
	}
	s, err := jsonschema.Parse(resolved)
	if err != nil {
		return Bundle{}, err
	}
	v, err := validator.Compile(s, cfg.validatorOptions(log.With(zap.String("doc", name))))
	if err != nil {
		return Bundle{}, err
	}
	fds := v.Fields()
	ts, err := artifact.EncodeTableSchema(fds)
	if err != nil {
		return Bundle{}, err
	}
	sql, err := artifact.DDL(fds, cfg.ddlOptions())
	if err != nil {
		return Bundle{}, err
	}
	js, err := resolved.MarshalIndent("  ")
	if err != nil {
		return Bundle{}, err
	}
	log.Info("compile schema",
		zap.String("doc", name),
		zap.Int("fields", len(fds)),
		zap.Int("rules", v.Rules().Len()),
		zap.Uint64("fingerprint", v.Fingerprint()),
	)
	return Bundle{
		Name:        name,
		Validator:   v,
		Fields:      fds,
		CSV:         artifact.CSV(fds),
		TableSchema: ts,
		SQL:         sql,
		JSONSchema:  js,
	}, nil
}
