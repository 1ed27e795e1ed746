package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/client"
	"github.com/mrlokans/library/internal/entities"
)

func (a *app) usersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "List and create members"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Name, u.Email})
			}
			return a.table(users, []string{"ID", "NAME", "EMAIL"}, rows)
		},
	}

	var name, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a member (password is prompted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.terminalPassword("Password for new user: ")
			if err != nil {
				return err
			}
			user, err := a.client.CreateUser(cmd.Context(), client.RegisterInput{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			return a.done(user, "Created user %s <%s> with id %s", user.Name, user.Email, user.ID)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&email, "email", "", "Email address")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(list, create)
	return cmd
}

func (a *app) authorsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "authors", Short: "Manage authors"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List authors with their book counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authors, err := a.client.ListAuthors(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(authors))
			for _, au := range authors {
				rows = append(rows, []string{au.ID, au.Name, strconv.FormatInt(au.BookCount, 10)})
			}
			return a.table(authors, []string{"ID", "NAME", "BOOKS"}, rows)
		},
	}

	var name, bio string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.AuthorInput{Name: &name}
			if cmd.Flags().Changed("bio") {
				in.Bio = &bio
			}
			author, err := a.client.CreateAuthor(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.done(author, "Created author %s with id %s", author.Name, author.ID)
		},
	}
	add.Flags().StringVar(&name, "name", "", "Author name")
	add.Flags().StringVar(&bio, "bio", "", "Short biography")
	_ = add.MarkFlagRequired("name")

	del := &cobra.Command{
		Use:   "delete <author-id>",
		Short: "Delete an author without books",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteAuthor(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(map[string]string{"id": args[0]}, "Deleted author %s", args[0])
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func (a *app) booksCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "books", Short: "Manage books"}

	var filter client.BookFilter
	var borrowed string
	list := &cobra.Command{
		Use:   "list",
		Short: "List books, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if borrowed != "" {
				b, err := strconv.ParseBool(borrowed)
				if err != nil {
					return fmt.Errorf("--borrowed must be true or false")
				}
				filter.Borrowed = &b
			}
			page, err := a.client.ListBooks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Data))
			for _, b := range page.Data {
				status := "available"
				if b.IsBorrowed {
					status = "on loan"
				}
				rows = append(rows, []string{b.ID, b.Title, authorName(b.Author), deref(b.ISBN), status})
			}
			if err := a.table(page, []string{"ID", "TITLE", "AUTHOR", "ISBN", "STATUS"}, rows); err != nil {
				return err
			}
			if !a.jsonOutput {
				fmt.Fprintf(a.out, "\nShowing %d of %d\n", len(page.Data), page.Total)
			}
			return nil
		},
	}
	list.Flags().StringVar(&filter.Search, "search", "", "Match title or ISBN")
	list.Flags().StringVar(&filter.AuthorID, "author", "", "Only books by this author id")
	list.Flags().StringVar(&borrowed, "borrowed", "", "true for books on loan, false for available ones")
	list.Flags().IntVar(&filter.Skip, "skip", 0, "Rows to skip")
	list.Flags().IntVar(&filter.Take, "take", 0, "Maximum rows (0 for all)")

	var title, authorID, isbn, published string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.BookInput{Title: &title, AuthorID: &authorID}
			if isbn != "" {
				in.ISBN = &isbn
			}
			if published != "" {
				in.PublishedAt = &published
			}
			book, err := a.client.CreateBook(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.done(book, "Created book %q with id %s", book.Title, book.ID)
		},
	}
	add.Flags().StringVar(&title, "title", "", "Book title")
	add.Flags().StringVar(&authorID, "author", "", "Author id")
	add.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	add.Flags().StringVar(&published, "published", "", "Publication date, YYYY-MM-DD")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("author")

	show := &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show a book with its loan history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.client.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(book)
			}
			fmt.Fprintf(a.out, "%s\n  by %s\n  ISBN: %s\n  on loan: %t\n\n", book.Title, authorName(book.Author), deref(book.ISBN), book.IsBorrowed)
			rows := make([][]string, 0, len(book.BorrowRecords))
			for _, r := range book.BorrowRecords {
				rows = append(rows, []string{borrower(r), formatTime(&r.BorrowedAt), formatTime(r.ReturnedAt)})
			}
			return a.table(nil, []string{"BORROWER", "BORROWED", "RETURNED"}, rows)
		},
	}

	del := &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book that was never borrowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(map[string]string{"id": args[0]}, "Deleted book %s", args[0])
		},
	}

	cmd.AddCommand(list, add, show, del)
	return cmd
}

func authorName(a *entities.Author) string {
	if a == nil {
		return "-"
	}
	return a.Name
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
