package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
)

func inviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage signup invite codes",
	}
	cmd.AddCommand(inviteCreateCmd())
	cmd.AddCommand(inviteListCmd())
	return cmd
}

func inviteCreateCmd() *cobra.Command {
	req := &models.CreateInviteCodeRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invite code (random when --code is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db := connect()
			defer db.Close()

			invite, err := services.NewInviteService(repositories.NewInviteCodeRepo(db.GORM)).Create(req, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), invite.Code)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Code, "code", "c", "", "Code to create")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "Who the code is for")
	cmd.Flags().IntVarP(&req.MaxUses, "max-uses", "m", 1, "Number of signups allowed")
	cmd.Flags().StringVar(&req.ExpiresAt, "expires", "", "Expiry date, e.g. 2026-12-31")

	return cmd
}

func inviteListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invite codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db := connect()
			defer db.Close()

			codes, err := services.NewInviteService(repositories.NewInviteCodeRepo(db.GORM)).List()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(codes)
			}
			return printInvites(cmd, codes)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func printInvites(cmd *cobra.Command, codes []models.InviteCode) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tUSES\tACTIVE\tEXPIRES\tDESCRIPTION")
	for _, c := range codes {
		expires := "-"
		if c.ExpiresAt != nil {
			expires = c.ExpiresAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%t\t%s\t%s\n", c.Code, c.UsedCount, c.MaxUses, c.IsActive, expires, c.Description)
	}
	return w.Flush()
}
