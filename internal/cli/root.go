/*
Package cli implements the rules-engine command-line interface.

Each command is built by a NewXxxCmd constructor returning a
*cobra.Command; cmd/rules-engine wires them onto the root command.
*/
package cli

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/config"
	"github.com/PaulDuvall/rules-engine/internal/engine"
	"github.com/PaulDuvall/rules-engine/internal/fetcher"
	"github.com/PaulDuvall/rules-engine/internal/storage"
)

// commonFlags are the flags shared by pipeline-running commands.
type commonFlags struct {
	configPath  string
	catalogPath string
	verbose     bool
}

// loadOptions reads engine options from the flagged path or the default
// location.
func (f *commonFlags) loadOptions() (*config.Options, error) {
	if f.configPath != "" {
		return config.LoadFrom(f.configPath)
	}
	return config.Load()
}

// loadCatalog reads and validates the rule catalog.
func (f *commonFlags) loadCatalog() (*catalog.Catalog, error) {
	if f.catalogPath == "" {
		return nil, fmt.Errorf("no catalog specified: use --catalog <file>")
	}
	return catalog.Load(f.catalogPath)
}

// buildLogger creates a console zap logger; --verbose enables debug.
func (f *commonFlags) buildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if f.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// buildEngine assembles the full pipeline from flags. withHistory
// attaches the background selection recorder.
func (f *commonFlags) buildEngine(withHistory bool) (*engine.Engine, *storage.Recorder, error) {
	opts, err := f.loadOptions()
	if err != nil {
		return nil, nil, err
	}
	if f.verbose {
		opts.Verbose = true
	}

	cat, err := f.loadCatalog()
	if err != nil {
		return nil, nil, err
	}

	log, err := f.buildLogger()
	if err != nil {
		return nil, nil, err
	}

	owner, repo := opts.SourceOwnerRepo()
	source := fetcher.NewGitHubSource(nil, owner, repo, opts.Ref)

	var recorder *storage.Recorder
	if withHistory {
		recorder = storage.NewRecorder(storage.NewStore(), log)
	}

	eng, err := engine.New(cat, opts, source, recorder, nil, log)
	if err != nil {
		if recorder != nil {
			recorder.Stop()
		}
		return nil, nil, err
	}
	return eng, recorder, nil
}
