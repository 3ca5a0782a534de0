package tracker

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"variantcore/pkg/domain"
)

// RenderReport renders a human-readable summary of the active session.
func (t *Tracker) RenderReport() string {
	var b strings.Builder
	s := t.Summary()
	b.WriteString("Modification report\n")
	b.WriteString("===================\n")
	if t.session == nil {
		b.WriteString("no active session\n")
		return b.String()
	}
	fmt.Fprintf(&b, "session:       %s\n", t.session.ID)
	if t.session.BuildingID != "" {
		fmt.Fprintf(&b, "building:      %s\n", t.session.BuildingID)
	}
	if t.session.BaseModelRef != "" {
		fmt.Fprintf(&b, "base model:    %s\n", t.session.BaseModelRef)
	}
	fmt.Fprintf(&b, "duration:      %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "modifications: %d (%d successful, %d all time)\n\n", s.TotalModifications, s.Successful, s.AllTimeModifications)

	b.WriteString("By category\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "category\tvalid\tinvalid\terror\t")
	for _, row := range t.categoryRows() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n", row.category, row.counts[domain.StatusValid], row.counts[domain.StatusInvalid], row.counts[domain.StatusError])
	}
	_ = tw.Flush()

	b.WriteString("\nVariants\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "variant\tstatus\tmodifications\tsuccessful\toutput\t")
	for _, v := range t.Variants() {
		output := v.OutputRef
		if v.Status == domain.VariantFailed {
			output = "error: " + v.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t\n", v.ID, v.Status, v.TotalModifications, v.Successful, output)
	}
	_ = tw.Flush()

	if rejected := t.rejections(); len(rejected) > 0 {
		b.WriteString("\nRejected by rule\n")
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, r := range rejected {
			fmt.Fprintf(tw, "%s\t%d\t\n", r.rule, r.count)
		}
		_ = tw.Flush()
	}
	return b.String()
}

type categoryRow struct {
	category domain.Category
	counts   map[domain.ValidationStatus]int
}

func (t *Tracker) categoryRows() []categoryRow {
	byCategory := make(map[domain.Category]map[domain.ValidationStatus]int)
	for _, rec := range t.session.Records {
		c := rec.Result.Category
		if byCategory[c] == nil {
			byCategory[c] = make(map[domain.ValidationStatus]int)
		}
		byCategory[c][rec.Result.ValidationStatus]++
	}
	rows := make([]categoryRow, 0, len(byCategory))
	for c, counts := range byCategory {
		rows = append(rows, categoryRow{category: c, counts: counts})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].category < rows[j].category })
	return rows
}

type ruleCount struct {
	rule  string
	count int
}

func (t *Tracker) rejections() []ruleCount {
	counts := make(map[string]int)
	for _, rec := range t.session.Records {
		if rec.Result.Rule != "" && rec.Result.ValidationStatus == domain.StatusInvalid {
			counts[rec.Result.Rule]++
		}
	}
	out := make([]ruleCount, 0, len(counts))
	for rule, n := range counts {
		out = append(out, ruleCount{rule: rule, count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rule < out[j].rule })
	return out
}
