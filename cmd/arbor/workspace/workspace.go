// Package workspace opens the project a CLI command operates on: the
// effective config, the storage driver, the persisted cursors and a session
// over the stored tree.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/config"
	"github.com/papercomputeco/arbor/pkg/dotdir"
	"github.com/papercomputeco/arbor/pkg/eventstream"
	"github.com/papercomputeco/arbor/pkg/eventstream/kafka"
	"github.com/papercomputeco/arbor/pkg/eventstream/nop"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/logger"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/session"
	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/storage/inmemory"
	"github.com/papercomputeco/arbor/pkg/storage/postgres"
	"github.com/papercomputeco/arbor/pkg/storage/sqlite"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// DefaultProject is the project used when --project is not given.
const DefaultProject = "default"

// Flags are the persistent root flags every command shares.
type Flags struct {
	Debug     bool
	ConfigDir string
	Project   string
}

// AddPersistentFlags registers --debug, --config-dir and --project on cmd
// for it and every subcommand.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .arbor/ config directory")
	cmd.PersistentFlags().StringP("project", "P", DefaultProject, "Project (conversation tree) to operate on")
}

// FlagsFrom reads the persistent root flags from cmd. Flags that are not
// registered (a subcommand run on its own) keep their zero value.
func FlagsFrom(cmd *cobra.Command) Flags {
	f := Flags{Project: DefaultProject}
	f.Debug, _ = cmd.Flags().GetBool("debug")
	f.ConfigDir, _ = cmd.Flags().GetString("config-dir")
	if p, _ := cmd.Flags().GetString("project"); p != "" {
		f.Project = p
	}
	return f
}

// StorageFlagKeys are the registry keys of the storage selection flags.
var StorageFlagKeys = []string{config.FlagStorageDriver, config.FlagSQLite, config.FlagPostgresDSN}

// AddStorageFlags registers --storage, --sqlite and --postgres on cmd.
func AddStorageFlags(cmd *cobra.Command) {
	var driver, sqlitePath, dsn string
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &driver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &dsn)
}

// FromCommand opens the workspace for a command that only mutates or reads
// the tree. The command must have registered the storage flags.
func FromCommand(cmd *cobra.Command) (*Workspace, error) {
	flags := FlagsFrom(cmd)

	cfg, cfger, err := LoadConfig(cmd, flags, StorageFlagKeys...)
	if err != nil {
		return nil, err
	}

	return Open(cmd.Context(), Options{
		Flags:    flags,
		Config:   cfg,
		Configer: cfger,
	})
}

// LoadConfig resolves the effective config for cmd: registered flags, then
// ARBOR_* environment variables, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, flags Flags, registryKeys ...string) (*config.Config, *config.Configer, error) {
	cfger, err := config.NewConfiger(flags.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	v, err := config.InitViper(flags.ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

	return config.FromViper(v), cfger, nil
}

// OpenDriver opens the storage driver the config selects.
func OpenDriver(ctx context.Context, cfg *config.Config, cfger *config.Configer) (storage.Driver, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite, "":
		return sqlite.NewDriver(ctx, cfger.SQLitePath(cfg))
	case config.StoragePostgres:
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		return postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
	case config.StorageInMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}

// NewPublisher returns the Kafka publisher when events are enabled and a
// no-op publisher otherwise.
func NewPublisher(cfg *config.Config, log *slog.Logger) (eventstream.Publisher, error) {
	if !cfg.Events.Enabled {
		return nop.NewPublisher(), nil
	}
	return kafka.NewPublisher(kafka.Config{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
		Logger:  log,
	})
}

// Options configure Open.
type Options struct {
	Flags  Flags
	Config *config.Config

	// Configer resolves the default sqlite path.
	Configer *config.Configer

	// Dispatcher runs model round trips. Only chat needs one.
	Dispatcher session.Dispatcher

	// LLM is passed to the provider on every round trip.
	LLM llm.Options

	Logger *slog.Logger
}

// Workspace is an open project.
type Workspace struct {
	Project string
	Config  *config.Config
	Driver  storage.Driver
	Session *session.Session
	Logger  *slog.Logger

	configDir string
	dotdir    *dotdir.Manager
	publisher eventstream.Publisher
}

// Open loads the project tree and cursors and builds a session over them.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewCLI(opts.Flags.Debug)
	}

	project := opts.Flags.Project
	if project == "" {
		project = DefaultProject
	}

	driver, err := OpenDriver(ctx, opts.Config, opts.Configer)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	nodes, err := driver.Load(ctx, project)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("loading project %q: %w", project, err)
	}

	ddm := dotdir.NewManager()
	cursors, err := ddm.LoadCursors(project, opts.Flags.ConfigDir)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("loading cursors: %w", err)
	}
	if cursors == nil {
		cursors = &dotdir.Cursors{}
	}

	publisher, err := NewPublisher(opts.Config, log)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	sess := session.New(session.Config{
		Project:    project,
		Nodes:      nodes,
		ActiveID:   cursors.ActiveID,
		SelectedID: cursors.SelectedID,
		Dispatcher: opts.Dispatcher,
		Options:    opts.LLM,
		Publisher:  publisher,
		Logger:     log,
	})

	log.Debug("workspace opened",
		"project", project,
		"driver", opts.Config.Storage.Driver,
		"nodes", len(nodes),
	)

	return &Workspace{
		Project:   project,
		Config:    opts.Config,
		Driver:    driver,
		Session:   sess,
		Logger:    log,
		configDir: opts.Flags.ConfigDir,
		dotdir:    ddm,
		publisher: publisher,
	}, nil
}

// Resolve maps a node reference to a full id. A reference is a full id or a
// unique id prefix, as printed by arbor tree.
func (w *Workspace) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("node id is required")
	}
	if _, err := w.Session.Node(ref); err == nil {
		return ref, nil
	}

	var matches []string
	for _, n := range w.Session.Snapshot().Nodes {
		if strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", tree.NotFoundError{ID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("node id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// Replace swaps the whole tree for nodes. Cursors reset: the active node
// becomes the first node and nothing is selected.
func (w *Workspace) Replace(nodes []*tree.Node) {
	w.Session = session.New(session.Config{
		Project:   w.Project,
		Nodes:     nodes,
		Publisher: w.publisher,
		Logger:    w.Logger,
	})
}

// RenderTree prints the project tree with the current cursors.
func (w *Workspace) RenderTree(out io.Writer) {
	state := w.Session.Snapshot()
	cliui.RenderTree(out, tree.NewStore(state.Nodes...), cliui.TreeView{
		ActiveID:   state.ActiveID,
		SelectedID: state.SelectedID,
	})
}

// Inspect compiles the context at id for prompt against the configured
// token budget. An empty id uses the active node.
func (w *Workspace) Inspect(id, prompt string) (*memory.View, error) {
	state := w.Session.Snapshot()
	if id == "" {
		id = state.ActiveID
	}
	budget := int(w.Config.Context.TokenBudget) //nolint:gosec // budget is small
	return memory.Inspect(tree.NewStore(state.Nodes...), id, prompt, budget)
}

// Save persists the tree and the cursors.
func (w *Workspace) Save(ctx context.Context) error {
	state := w.Session.Snapshot()

	if err := w.Driver.Save(ctx, w.Project, state.Nodes); err != nil {
		return fmt.Errorf("saving project %q: %w", w.Project, err)
	}

	cursors := &dotdir.Cursors{ActiveID: state.ActiveID, SelectedID: state.SelectedID}
	if err := w.dotdir.SaveCursors(w.Project, cursors, w.configDir); err != nil {
		return fmt.Errorf("saving cursors: %w", err)
	}

	w.Logger.Debug("workspace saved", "project", w.Project, "nodes", len(state.Nodes))
	return nil
}

// Close releases the storage driver and event publisher.
func (w *Workspace) Close() error {
	return errors.Join(w.publisher.Close(), w.Driver.Close())
}
