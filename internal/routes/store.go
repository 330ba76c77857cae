package routes

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/metadocs/internal/config"
	"git.home.luguber.info/inful/metadocs/internal/homeindex"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
)

// Loader returns the current route table.
type Loader interface {
	Load() (Table, error)
}

// Store persists a route table where other processes can read it.
type Store interface {
	Loader
	Save(Table) error
}

// EnvStore keeps the encoded table in an environment variable, so child
// processes started afterwards inherit it.
type EnvStore struct {
	Key string
}

// NewEnvStore returns a store backed by METADOCS_ROUTES.
func NewEnvStore() *EnvStore {
	return &EnvStore{Key: config.EnvRoutes}
}

func (s *EnvStore) Save(t Table) error {
	encoded, err := Encode(t)
	if err != nil {
		return err
	}
	if err := os.Setenv(s.Key, encoded); err != nil {
		return fmt.Errorf("export %s: %w", s.Key, err)
	}
	return nil
}

// Load decodes the variable. Missing or malformed values yield an empty table.
func (s *EnvStore) Load() (Table, error) {
	raw, ok := os.LookupEnv(s.Key)
	if !ok {
		return Table{}, nil
	}
	t, err := Decode(raw)
	if err != nil {
		slog.Warn("Ignoring malformed route table", slog.String("key", s.Key), logfields.Error(err))
		return Table{}, nil
	}
	return t, nil
}

// Refresher recomputes the table from the home index and saves it.
type Refresher struct {
	root      string
	indexPath string
	store     Store

	mu          sync.Mutex
	fingerprint string
}

// NewRefresher returns a refresher for the workspace at root.
func NewRefresher(root, indexPath string, store Store) *Refresher {
	return &Refresher{root: root, indexPath: indexPath, store: store}
}

// Refresh rebuilds and saves the table. changed reports whether the home
// index content differs from the previous refresh; the first call always
// reports a change.
func (r *Refresher) Refresh() (table Table, changed bool, err error) {
	data, err := os.ReadFile(r.indexPath) // #nosec G304 -- home index lives in the operator's workspace
	if err != nil {
		return nil, false, fmt.Errorf("read home index: %w", err)
	}

	table, err = Build(r.root, homeindex.Sorted(homeindex.ListedProjects(data)))
	if err != nil {
		return nil, false, err
	}
	if err := r.store.Save(table); err != nil {
		return nil, false, err
	}

	fp := mdfp.CalculateFingerprintFromParts("", string(data))

	r.mu.Lock()
	changed = fp != r.fingerprint
	r.fingerprint = fp
	r.mu.Unlock()

	if changed {
		slog.Debug("Route table refreshed", logfields.Routes(len(table)), logfields.Path(r.indexPath))
	}
	return table, changed, nil
}
