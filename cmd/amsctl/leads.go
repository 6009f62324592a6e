package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
)

func importLeadsCmd() *cobra.Command {
	var institute string

	cmd := &cobra.Command{
		Use:   "import-leads [file.csv]",
		Short: "Bulk import leads from a CSV file into an institute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instituteID, err := uuid.Parse(institute)
			if err != nil {
				return fmt.Errorf("invalid --institute: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			_, db := connect()
			defer db.Close()

			if _, err := services.NewInstituteService(repositories.NewInstituteRepo(db.GORM), nil).Get(instituteID); err != nil {
				return err
			}

			leads := services.NewLeadService(
				repositories.NewLeadRepo(db.GORM),
				repositories.NewCourseRepo(db.GORM),
				analytics.NewAggregator(db.GORM),
				export.NewService(),
			)
			result, err := leads.Import(instituteID, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported:   %d\n", result.Imported)
			fmt.Fprintf(out, "duplicates: %d\n", len(result.Duplicates))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "row %d: %s\n", e.Row, e.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&institute, "institute", "i", "", "Institute ID")
	_ = cmd.MarkFlagRequired("institute")

	return cmd
}
