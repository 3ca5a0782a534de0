package tracker

import (
	"sort"
	"time"

	"variantcore/pkg/domain"
)

// Summary aggregates the active session's audit log. TotalModifications
// counts results of the active session; AllTimeModifications counts every
// result recorded since the tracker was built.
type Summary struct {
	SessionID            string                          `json:"session_id,omitempty"`
	TotalModifications   int                             `json:"total_modifications"`
	AllTimeModifications int                             `json:"all_time_modifications"`
	Successful           int                             `json:"successful_modifications"`
	Buildings            []string                        `json:"buildings"`
	ByCategory           map[domain.Category]int         `json:"by_category"`
	ByStatus             map[domain.ValidationStatus]int `json:"by_status"`
	Variants             map[domain.VariantStatus]int    `json:"variants"`
	Duration             time.Duration                   `json:"duration"`
}

// Summary derives counters from the active session. Distinct buildings span
// archived sessions too.
func (t *Tracker) Summary() Summary {
	s := Summary{
		AllTimeModifications: t.total,
		ByCategory:           make(map[domain.Category]int),
		ByStatus:             make(map[domain.ValidationStatus]int),
		Variants:             make(map[domain.VariantStatus]int),
		Buildings:            t.buildings(),
	}
	if t.session == nil {
		return s
	}
	s.SessionID = t.session.ID
	s.TotalModifications = len(t.session.Records)
	for _, rec := range t.session.Records {
		s.ByCategory[rec.Result.Category]++
		s.ByStatus[rec.Result.ValidationStatus]++
		if rec.Result.Succeeded() {
			s.Successful++
		}
	}
	for _, id := range t.order {
		s.Variants[t.variants[id].Status]++
	}
	end := t.now()
	if t.session.EndedAt != nil {
		end = *t.session.EndedAt
	}
	s.Duration = end.Sub(t.session.StartedAt)
	return s
}

func (t *Tracker) buildings() []string {
	seen := make(map[string]struct{})
	add := func(id string) {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	for _, snap := range t.archive {
		add(snap.Session.BuildingID)
	}
	if t.session != nil {
		add(t.session.BuildingID)
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
