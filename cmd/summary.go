package cmd

import (
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"aniscan/internal/pipeline"
)

// renderSummary formats the end-of-run counters as a table.
func renderSummary(s pipeline.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Count"})

	tw.AppendRow(table.Row{"Attempted", strconv.Itoa(s.Attempted)})
	tw.AppendRow(table.Row{"Succeeded", strconv.Itoa(s.Succeeded)})
	tw.AppendRow(table.Row{"Degraded (no title match)", strconv.Itoa(s.Degraded)})

	classes := make([]pipeline.Classification, 0, len(s.Failed))
	for class := range s.Failed {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, class := range classes {
		tw.AppendRow(table.Row{"Failed: " + string(class), strconv.Itoa(s.Failed[class])})
	}
	tw.AppendFooter(table.Row{"Failed total", strconv.Itoa(s.TotalFailed())})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
