package tracker

import (
	"fmt"
	"sort"

	"variantcore/pkg/domain"
)

// Merge folds worker trackers into dst. Variants are appended in worker
// order and the session audit log is re-sorted by timestamp then variant id,
// so the result does not depend on scheduling. Workers without a session
// are skipped; a variant id present in dst fails the merge before anything
// is changed.
func Merge(dst *Tracker, workers ...*Tracker) error {
	if dst == nil || dst.session == nil {
		return domain.ErrNoActiveSession
	}
	seen := make(map[string]struct{})
	for _, w := range workers {
		if w == nil || w.session == nil {
			continue
		}
		for _, id := range w.order {
			if _, dup := dst.variants[id]; dup {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateVariant, id)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateVariant, id)
			}
			seen[id] = struct{}{}
		}
	}

	for _, w := range workers {
		if w == nil || w.session == nil {
			continue
		}
		for _, id := range w.order {
			v := copyVariant(*w.variants[id])
			v.SessionID = dst.session.ID
			for i := range v.Records {
				v.Records[i].SessionID = dst.session.ID
			}
			dst.variants[id] = &v
			dst.order = append(dst.order, id)
			dst.session.Records = append(dst.session.Records, v.Records...)
		}
		dst.total += w.total
	}
	sortRecords(dst.session.Records)
	return nil
}

func sortRecords(records []domain.AuditRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.VariantID < b.VariantID
	})
}
