package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/llm"
	"github.com/abhisek/gilbot/internal/logger"
	"github.com/abhisek/gilbot/internal/observability"
	"github.com/abhisek/gilbot/internal/ocr"
	"github.com/abhisek/gilbot/internal/session"
	"github.com/abhisek/gilbot/internal/store"
	"github.com/abhisek/gilbot/internal/tutor"
)

const serviceName = "gilbot"

// runtime holds everything a serving command needs. Close releases it in
// reverse order of acquisition.
type runtime struct {
	log     *logger.Logger
	store   *store.Store
	tutor   *tutor.Service
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime opens the store, loads the catalogs and builds the tutor
// service with the configured LLM and OCR providers. With logToFile the log
// goes to gilbot.log next to the database instead of stderr.
func buildRuntime(ctx context.Context, cmd *cobra.Command, logToFile bool) (*runtime, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	var outputs []string
	if logToFile {
		outputs = append(outputs, filepath.Join(filepath.Dir(dbPath), "gilbot.log"))
	}
	log, err := logger.NewFromEnv(outputs...)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	rt := &runtime{log: log}
	rt.closers = append(rt.closers, log.Sync)

	shutdown := observability.Init(ctx, log, observability.ConfigFromEnv(serviceName, version))
	rt.closers = append(rt.closers, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	})

	st, err := store.Open(dbPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, func() { st.Close() })
	eventRepo := st.EventRepo()

	cat, err := catalog.LoadDir(ctx, resolveCatalogDir(cmd), catalog.DefaultFiles(), log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	provider, err := llm.NewProviderFromEnv(ctx, eventRepo, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}

	recognizer, err := ocr.New(ctx, ocr.ConfigFromEnv(), log)
	if err != nil {
		if !errors.Is(err, ocr.ErrNotConfigured) {
			log.Warn("OCR unavailable", "error", err)
		}
		recognizer = ocr.Noop{}
	}
	if c, ok := recognizer.(io.Closer); ok {
		rt.closers = append(rt.closers, func() { c.Close() })
	}

	var sessionOpts []session.Option
	if n, err := strconv.Atoi(os.Getenv("GILBOT_SESSION_MAX_TURNS")); err == nil && n > 0 {
		sessionOpts = append(sessionOpts, session.WithMaxTurns(n))
	}

	rt.tutor = tutor.NewService(tutor.Deps{
		Provider: provider,
		Catalog:  cat,
		Sessions: session.NewStore(sessionOpts...),
		OCR:      recognizer,
		Lookups:  eventRepo,
		Log:      log,
	}, tutor.DefaultConfig())
	return rt, nil
}
