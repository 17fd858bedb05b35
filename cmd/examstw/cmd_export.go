package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/export"
)

var (
	exportOut    string
	exportSource string
	exportFilter filterFlags
)

// exportCmd writes exam records to an XLSX workbook.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write exams and questions to an XLSX workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "exams.xlsx", "output workbook")
	exportCmd.Flags().StringVar(&exportSource, "source", "dir", "dir (JSON folders) or mongo")
	addFilterFlags(exportCmd, &exportFilter)
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.year, "year", "", "exam year, e.g. 113")
	cmd.Flags().StringVar(&f.examName, "exam", "", "substring of the exam name")
	cmd.Flags().StringVar(&f.subject, "subject", "", "substring of the subject")
	cmd.Flags().BoolVar(&f.parsedOnly, "parsed", false, "only records marked parsed")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of exams")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	src, release, err := examSource(ctx, exportSource)
	if err != nil {
		return err
	}
	defer release()

	b, err := export.NewService(src, logger).ExportExamsXLSX(ctx, exportFilter.filter())
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, b, 0o644); err != nil {
		return err
	}
	logger.Info("export.written", "path", exportOut, "bytes", len(b))
	return nil
}
