package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/client"
)

const envServerURL = "LIBRARY_URL"

// app holds what every subcommand shares: the streams, the output mode and
// the API client built once flags are parsed.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	serverURL   string
	sessionPath string
	jsonOutput  bool

	client *client.Client
	// lines buffers piped stdin across prompts.
	lines *bufio.Reader
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Manage the library: books, authors, members and loans",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.serverURL, "server", os.Getenv(envServerURL), "API base URL (default from the saved session, then "+client.DefaultBaseURL+"; env "+envServerURL+")")
	flags.StringVar(&a.sessionPath, "session", "", "Path to the session file (default in the user config directory)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print raw JSON instead of tables")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.registerCommand(),
		a.healthCommand(),
		a.statsCommand(),
		a.usersCommand(),
		a.authorsCommand(),
		a.booksCommand(),
		a.borrowCommand(),
		a.returnCommand(),
		a.loansCommand(),
		a.auditCommand(),
	)
	return root
}

func (a *app) connect() error {
	path := a.sessionPath
	if path == "" {
		var err error
		path, err = client.DefaultSessionPath()
		if err != nil {
			return err
		}
	}

	c, err := client.New(a.serverURL, client.NewSessionStore(path))
	if err != nil {
		return err
	}
	a.client = c
	return nil
}

// currentUserID returns the logged-in user's id for commands that default to "me".
func (a *app) currentUserID() (string, error) {
	session := a.client.Session()
	if session == nil || session.User == nil {
		return "", client.ErrNotLoggedIn
	}
	return session.User.ID, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table prints rows under header unless --json was given, in which case raw is printed.
func (a *app) table(raw any, header []string, rows [][]string) error {
	if a.jsonOutput {
		return a.printJSON(raw)
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No results.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	writeRow(w, header)
	for _, row := range rows {
		writeRow(w, row)
	}
	return w.Flush()
}

func writeRow(w io.Writer, cols []string) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
}

// done prints a one-line confirmation, or v as JSON.
func (a *app) done(v any, format string, args ...any) error {
	if a.jsonOutput {
		return a.printJSON(v)
	}
	fmt.Fprintf(a.out, format+"\n", args...)
	return nil
}
