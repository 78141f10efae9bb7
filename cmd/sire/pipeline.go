package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sire/internal/calltree"
	"sire/internal/sirdoc"
	"sire/internal/source"
	"sire/internal/trace"
	"sire/internal/tracecache"
)

// document is one loaded and reconstructed trace.
type document struct {
	source string
	trace  *sirdoc.StructuredTrace
	report sirdoc.Report
	cached bool
}

// sourcesOrDefault falls back to the configured URL when no source is given.
func (s settings) sourcesOrDefault(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{s.cfg.Source.URL}
}

func (s settings) sourceOptions() source.Options {
	return source.Options{
		Timeout: s.cfg.Source.Timeout.Duration,
		Retries: s.cfg.Source.Retries,
		Backoff: 200 * time.Millisecond,
	}
}

func (s settings) openCache() (*tracecache.Cache, error) {
	if !s.cfg.Cache.Enabled || s.noCache {
		return nil, nil
	}
	dir := s.cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = tracecache.DefaultDir(); err != nil {
			return nil, err
		}
	}
	return tracecache.Open(dir)
}

// loadDocuments fetches every source concurrently and reconstructs each one,
// consulting the cache when it is enabled.
func loadDocuments(ctx context.Context, s settings, srcs []string) ([]document, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "load-documents")
	defer span.End("")

	var loaded []source.Loaded
	err := s.timer.Track("load", func() error {
		var err error
		loaded, err = source.LoadAll(ctx, srcs, s.cfg.Source.Jobs, s.sourceOptions())
		return err
	})
	if err != nil {
		return nil, err
	}

	cache, err := s.openCache()
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	docs := make([]document, 0, len(loaded))
	for _, l := range loaded {
		doc, err := buildDocument(ctx, s, cache, l)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildDocument(ctx context.Context, s settings, cache *tracecache.Cache, l source.Loaded) (document, error) {
	opts := s.buildOptions()
	key := tracecache.KeyFor(l.Data, opts)

	if cache != nil {
		t, p, ok, err := cache.Get(key)
		if err != nil {
			// a corrupt entry is rebuilt below
			fmt.Fprintf(os.Stderr, "warning: ignoring cache entry %s: %v\n", key, err)
		}
		if ok {
			rep := sirdoc.Report{
				Events:   p.Events,
				Calls:    calltree.Stats(t.Events).Calls,
				MaxDepth: p.MaxDepth,
				Values:   p.Values,
			}
			for _, issue := range p.Issues {
				rep.Issues = append(rep.Issues, errors.New(issue))
			}
			return document{source: l.Source, trace: t, report: rep, cached: true}, nil
		}
	}

	var in *sirdoc.InputTrace
	err := s.timer.Track("decode", func() error {
		var err error
		in, err = sirdoc.Decode(bytes.NewReader(l.Data))
		return err
	})
	if err != nil {
		return document{}, fmt.Errorf("%s: %w", l.Source, err)
	}

	var (
		t   *sirdoc.StructuredTrace
		rep sirdoc.Report
	)
	err = s.timer.Track("build", func() error {
		var err error
		t, rep, err = sirdoc.Build(ctx, in, opts)
		return err
	})
	if err != nil {
		return document{}, fmt.Errorf("%s: %w", l.Source, err)
	}

	if cache != nil {
		if err := cache.Put(key, l.Source, t, rep); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache store failed: %v\n", err)
		}
	}
	return document{source: l.Source, trace: t, report: rep}, nil
}
