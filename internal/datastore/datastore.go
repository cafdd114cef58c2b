// Package datastore connects backing stores to the dictionary. A store
// decides which types it maps and binds them at startup.
package datastore

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/dictionary"
	"github.com/conduit-lang/entitydict/internal/model"
	ustrings "github.com/conduit-lang/entitydict/internal/util/strings"
)

// DataStore populates a dictionary with the types it persists
type DataStore interface {
	Name() string
	PopulateEntityDictionary(ctx context.Context, d *dictionary.Dictionary) error
}

// Populate marks the persistent types and binds every candidate. Bind
// failures of single types are joined into the returned error.
func Populate(d *dictionary.Dictionary, candidates, persistent []reflect.Type) error {
	for _, t := range persistent {
		d.MarkPersistent(t)
	}
	if err := d.BindAll(candidates...); err != nil {
		return fmt.Errorf("populate dictionary: %w", err)
	}
	return nil
}

// TableName returns the table a type is stored in: the table argument of
// its own entity annotation, or its name in snake case
func TableName(desc *model.Descriptor) string {
	if a, ok := desc.Annotations.Get(model.Entity); ok {
		if table, ok := a.Arg(model.ArgTable); ok && table != "" {
			return table
		}
	}
	name, _, _ := strings.Cut(desc.Name, "[")
	return ustrings.ToSnakeCase(name)
}

// TypeKey identifies a type across processes
func TypeKey(t reflect.Type) string {
	t = model.Indirect(t)
	return t.PkgPath() + "." + t.Name()
}

// Memory binds every catalog type in scope. It persists nothing itself, so
// only entity annotations mark persistence.
type Memory struct {
	Scope  []string
	Logger *zap.Logger
}

// Name implements DataStore
func (m *Memory) Name() string {
	return "memory"
}

// PopulateEntityDictionary implements DataStore
func (m *Memory) PopulateEntityDictionary(ctx context.Context, d *dictionary.Dictionary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	types := d.Catalog().Types(m.Scope...)
	logger(m.Logger).Debug("populating dictionary", zap.String("store", m.Name()), zap.Int("types", len(types)))
	return Populate(d, types, nil)
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
