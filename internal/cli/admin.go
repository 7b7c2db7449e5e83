package cli

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

func newOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Bulk order administration"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-status STATUS ORDER_ID...",
			Short: "Set the fulfilment status of orders",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := enums.ParseOrderStatus(args[0])
				if err != nil {
					return err
				}
				ids, err := parseIDs(args[1:])
				if err != nil {
					return err
				}
				res, err := envFrom(cmd).Orders.ApplyBulkStatus(cmd.Context(), orders.Actor{Role: enums.UserRoleStaff}, ids, status)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
		&cobra.Command{
			Use:   "set-payment-status STATUS ORDER_ID...",
			Short: "Set the payment status of orders",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := enums.ParsePaymentStatus(args[0])
				if err != nil {
					return err
				}
				ids, err := parseIDs(args[1:])
				if err != nil {
					return err
				}
				res, err := envFrom(cmd).Orders.ApplyBulkPaymentStatus(cmd.Context(), orders.Actor{Role: enums.UserRoleStaff}, ids, status)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
	)
	return cmd
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "User account administration"}
	for _, active := range []bool{true, false} {
		use, short := "activate", "Allow users to sign in"
		if !active {
			use, short = "deactivate", "Block users from signing in"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use + " USER_ID...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				res, err := envFrom(cmd).Users.SetActive(cmd.Context(), ids, active)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		})
	}
	return cmd
}

func newReviewsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "reviews", Short: "Review moderation"}
	for _, approve := range []bool{true, false} {
		use, short := "approve", "Approve reviews for public display"
		if !approve {
			use, short = "reject", "Hide reviews from the storefront"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use + " REVIEW_ID...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				res, err := envFrom(cmd).Reviews.Moderate(cmd.Context(), ids, approve)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		})
	}
	return cmd
}
