package tasks

import (
	"slices"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

// normalizeTags trims names and drops blanks and duplicates, keeping the
// first occurrence's position
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// diffTags returns names only in next (added) and only in prev (removed)
func diffTags(prev, next []string) (added, removed []string) {
	for _, n := range next {
		if !slices.Contains(prev, n) {
			added = append(added, n)
		}
	}
	for _, p := range prev {
		if !slices.Contains(next, p) {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// retainTags counts one more reference for each name, creating tags on
// first use
func retainTags(tx *store.Tx, names []string, now time.Time) error {
	for _, name := range names {
		tag, ok := tx.Tag(name)
		if !ok {
			if err := tx.CreateTag(model.Tag{
				Name:       name,
				UsageCount: 1,
				LastUsed:   now,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			continue
		}
		tag.UsageCount++
		tag.LastUsed = now
		if err := tx.UpdateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// releaseTags drops one reference per name; a tag nobody uses is deleted
func releaseTags(tx *store.Tx, names []string) error {
	for _, name := range names {
		tag, ok := tx.Tag(name)
		if !ok {
			continue
		}
		tag.UsageCount--
		if tag.UsageCount <= 0 {
			tx.DeleteTag(name)
			continue
		}
		if err := tx.UpdateTag(tag); err != nil {
			return err
		}
	}
	return nil
}
