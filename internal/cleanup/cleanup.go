// Package cleanup removes records that were duplicated by earlier sync bugs.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mmynk/gathersync/internal/models"
)

// Result reports what a cleanup run did.
type Result struct {
	Removed int
	Kept    int
	// Duplicates lists every name that had more than one record.
	Duplicates []string
}

// Record describes how to group and order records of type T.
type Record[T models.Entity] struct {
	Name      func(T) string
	CreatedAt func(T) time.Time
}

// RemoveDuplicates groups items by name, keeps the earliest created record
// of each group and deletes the rest through del. Deletion stops at the
// first error.
func RemoveDuplicates[T models.Entity](ctx context.Context, items []T, rec Record[T], del func(ctx context.Context, id string) error) (Result, error) {
	var (
		order  []string
		groups = make(map[string][]T)
		result Result
	)
	for _, item := range items {
		name := rec.Name(item)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], item)
	}

	for _, name := range order {
		group := groups[name]
		if len(group) < 2 {
			continue
		}
		result.Duplicates = append(result.Duplicates, name)

		sort.SliceStable(group, func(i, j int) bool {
			return rec.CreatedAt(group[i]).Before(rec.CreatedAt(group[j]))
		})
		slog.Info("Keeping oldest duplicate", "name", name, "id", group[0].GetID(), "copies", len(group))
		result.Kept++

		for _, dup := range group[1:] {
			if err := del(ctx, dup.GetID()); err != nil {
				return result, fmt.Errorf("failed to remove duplicate %s: %w", dup.GetID(), err)
			}
			result.Removed++
		}
	}
	return result, nil
}

// Events groups events by name.
var Events = Record[models.Event]{
	Name:      func(e models.Event) string { return e.Name },
	CreatedAt: func(e models.Event) time.Time { return e.CreatedAt },
}

// GroupTemplates groups group templates by name.
var GroupTemplates = Record[models.GroupTemplate]{
	Name:      func(t models.GroupTemplate) string { return t.Name },
	CreatedAt: func(t models.GroupTemplate) time.Time { return t.CreatedAt },
}

// RecurringTemplates groups recurring templates by name.
var RecurringTemplates = Record[models.RecurringEventTemplate]{
	Name:      func(t models.RecurringEventTemplate) string { return t.Name },
	CreatedAt: func(t models.RecurringEventTemplate) time.Time { return t.CreatedAt },
}
