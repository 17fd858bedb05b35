package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/entity"
	repo "github.com/freeseed/exams-tw/internal/repository"
)

var (
	jobsExam   string
	jobsStatus string
	jobsLimit  int
)

// jobsCmd prints the extraction ledger.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List extraction ledger rows, newest first",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsExam, "exam", "", "only this exam id")
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "QUEUED, RUNNING, EXTRACTED, RESOLVED, SKIPPED or FAILED")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum rows")
}

func runJobs(cmd *cobra.Command, _ []string) error {
	jobs, closeJobs, err := openJobs(cmd.Context())
	if err != nil {
		return err
	}
	defer closeJobs()

	rows, err := jobs.List(cmd.Context(), repo.JobFilter{
		ExamID: jobsExam,
		Status: constants.JobStatus(strings.ToUpper(jobsStatus)),
		Limit:  jobsLimit,
	})
	if err != nil {
		return err
	}
	return printJobs(cmd.OutOrStdout(), rows)
}

func printJobs(w io.Writer, rows []*entity.ExtractJob) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tEXAM\tLAYOUT\tSTATUS\tQUESTIONS\tIMAGES\tNOTE")
	for _, j := range rows {
		note := ""
		if j.ErrorMessage != nil {
			note = *j.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			j.StartedAt.Local().Format(time.DateTime), j.ExamID, j.Layout, j.Status,
			j.QuestionCount, j.ImageCount, note)
	}
	return tw.Flush()
}
