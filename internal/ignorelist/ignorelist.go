package ignorelist

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
)

const separator = ","

// Backend persists the whole list as one comma-delimited record.
type Backend interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, record string) error
}

// List is an ordered set of product names that the bulk workflow skips.
// Every mutation rewrites the full record.
type List struct {
	mu      sync.RWMutex
	names   []string
	backend Backend
	logger  *logger.Logger
}

func New(backend Backend, logger *logger.Logger) *List {
	return &List{
		backend: backend,
		logger:  logger.WithField("component", "ignorelist"),
	}
}

// Load replaces the in-memory list with the persisted record.
func (l *List) Load(ctx context.Context) error {
	record, err := l.backend.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ignore list: %w", err)
	}

	l.mu.Lock()
	l.names = decode(record)
	l.mu.Unlock()

	l.logger.Debug("Loaded %d ignored products", len(l.names))
	return nil
}

// Save persists the current list.
func (l *List) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked(ctx)
}

// Add appends name unless it is already listed. Names containing the record
// separator are rejected.
func (l *List) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.Contains(name, separator) {
		return apperror.BadRequest(fmt.Sprintf("product name %q must not contain %q", name, separator))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if slices.Contains(l.names, name) {
		return nil
	}
	l.names = append(l.names, name)
	if err := l.saveLocked(ctx); err != nil {
		l.names = l.names[:len(l.names)-1]
		return err
	}

	l.logger.Info("Added '%s' to the ignore list.", name)
	return nil
}

// Remove deletes name if present.
func (l *List) Remove(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := slices.Index(l.names, name)
	if i < 0 {
		return nil
	}
	previous := l.names
	l.names = slices.Delete(slices.Clone(l.names), i, i+1)
	if err := l.saveLocked(ctx); err != nil {
		l.names = previous
		return err
	}

	l.logger.Info("Removed '%s' from the ignore list.", name)
	return nil
}

func (l *List) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.names, name)
}

// Names returns a copy of the list in insertion order.
func (l *List) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.names)
}

func (l *List) saveLocked(ctx context.Context) error {
	if err := l.backend.Write(ctx, encode(l.names)); err != nil {
		l.logger.Error("Failed to save ignore list: %v", err)
		return fmt.Errorf("failed to save ignore list: %w", err)
	}
	return nil
}

func encode(names []string) string {
	return strings.Join(names, separator)
}

// decode splits a record, trimming names and dropping empties and duplicates.
func decode(record string) []string {
	names := []string{}
	for _, name := range strings.Split(record, separator) {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}
