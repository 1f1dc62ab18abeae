package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"playlistcheck/internal/models"
)

// WriteText renders the plain-text summary: a header block, then the
// failing URLs when there are any.
func WriteText(w io.Writer, rep *models.Report) error {
	bw := bufio.NewWriter(w)
	s := rep.Summary

	fmt.Fprintln(bw, "Playlist Test Summary")
	fmt.Fprintln(bw, "=====================")
	fmt.Fprintf(bw, "Completed at: %s\n", rep.RunAt.Add(secondsToDuration(s.DurationSeconds)).UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "Playlist directory: %s\n", rep.PlaylistDir)
	if rep.GitCommit != nil {
		fmt.Fprintf(bw, "Git commit: %s\n", *rep.GitCommit)
	}
	if rep.Error != nil {
		fmt.Fprintf(bw, "Error: %s\n", *rep.Error)
	}
	fmt.Fprintf(bw, "Total URLs: %d\n", s.TotalURLs)
	fmt.Fprintf(bw, "Working: %d\n", s.Working)
	fmt.Fprintf(bw, "Failing: %d\n", s.Failing)
	fmt.Fprintf(bw, "Success rate: %.2f%%\n", s.SuccessRate)
	fmt.Fprintf(bw, "Duration: %.2f seconds\n", s.DurationSeconds)

	if len(s.Failures) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Failing Channels List")
		fmt.Fprintln(bw, "=====================")
		for _, f := range s.Failures {
			fmt.Fprintf(bw, "%s  --  [%s]\n", f.URL, f.Reason)
		}
	}
	return bw.Flush()
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
