package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/entities"
)

func (a *app) borrowCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Lend a book (to yourself unless --user is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := a.userOrSelf(userID)
			if err != nil {
				return err
			}
			record, err := a.client.Borrow(cmd.Context(), args[0], uid)
			if err != nil {
				return err
			}
			return a.done(record, "Borrowed %q, loan %s", bookTitle(record.Book), record.ID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Borrower's user id (default: you)")
	return cmd
}

func (a *app) returnCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "return <book-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := a.userOrSelf(userID)
			if err != nil {
				return err
			}
			record, err := a.client.Return(cmd.Context(), args[0], uid)
			if err != nil {
				return err
			}
			return a.done(record, "Returned %q at %s", bookTitle(record.Book), formatTime(record.ReturnedAt))
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Borrower's user id (default: you)")
	return cmd
}

func (a *app) loansCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "loans", Short: "Show borrowed books"}

	active := &cobra.Command{
		Use:   "active",
		Short: "All books currently on loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.client.ActiveBorrows(cmd.Context())
			if err != nil {
				return err
			}
			return a.table(records, []string{"BOOK", "BORROWER", "BORROWED", "RETURNED"}, recordRows(records, true))
		},
	}

	history := &cobra.Command{
		Use:   "history [user-id]",
		Short: "Loan history of a member (default: you), newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID string
			if len(args) == 1 {
				userID = args[0]
			}
			uid, err := a.userOrSelf(userID)
			if err != nil {
				return err
			}
			records, err := a.client.BorrowsByUser(cmd.Context(), uid)
			if err != nil {
				return err
			}
			return a.table(records, []string{"BOOK", "BORROWED", "RETURNED"}, recordRows(records, false))
		},
	}

	cmd.AddCommand(active, history)
	return cmd
}

func (a *app) auditCommand() *cobra.Command {
	var eventType string
	var skip, take int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show your recent audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client.AuditEvents(cmd.Context(), eventType, skip, take)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Data))
			for _, e := range page.Data {
				rows = append(rows, []string{
					e.CreatedAt.Local().Format(time.DateTime),
					string(e.EventType),
					e.Action,
					string(e.Status),
					e.Description,
				})
			}
			return a.table(page, []string{"TIME", "TYPE", "ACTION", "STATUS", "DESCRIPTION"}, rows)
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "borrow, return, catalog or auth")
	cmd.Flags().IntVar(&skip, "skip", 0, "Events to skip")
	cmd.Flags().IntVar(&take, "take", 0, "Maximum events (server default 50)")
	return cmd
}

func (a *app) userOrSelf(userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	return a.currentUserID()
}

// recordRows renders loans; withBorrower adds the borrower column after the book.
func recordRows(records []entities.BorrowRecord, withBorrower bool) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{bookTitle(r.Book)}
		if withBorrower {
			row = append(row, borrower(r))
		}
		row = append(row, formatTime(&r.BorrowedAt), formatTime(r.ReturnedAt))
		rows = append(rows, row)
	}
	return rows
}

func bookTitle(b *entities.Book) string {
	if b == nil {
		return "-"
	}
	return b.Title
}

func borrower(r entities.BorrowRecord) string {
	if r.User != nil {
		return r.User.Name
	}
	return r.UserID
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
