package cmd

import (
	"fmt"
	"sort"

	"github.com/chaosgen/chaosgen/gen"
	"github.com/chaosgen/chaosgen/runner"
)

// printSummary writes the per-operation event tallies of a finished run
// to stdout.
func printSummary(h *runner.History) {
	fmt.Printf("==== Run Summary (%s) ====\n", h.RunID())
	fmt.Printf("total events: %d\n", h.Len())

	counts := h.Counts()
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	fmt.Printf("%-16s %8s %8s %8s %8s\n", "op", "invoke", "ok", "fail", "info")
	for _, tag := range tags {
		byType := counts[tag]
		fmt.Printf("%-16s %8d %8d %8d %8d\n", tag,
			byType[gen.Invoke], byType[gen.OK], byType[gen.Fail], byType[gen.Info])
	}
}
