package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/users"
)

// CreateUserCommand registers a library member from the command line.
type CreateUserCommand struct {
	Name          string
	Email         string
	Password      string
	PasswordStdin bool
	DatabasePath  string

	cfg   *config.Config
	stdin io.Reader
	out   io.Writer
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{cfg: cfg, stdin: os.Stdin, out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address used to log in (required)")
	fs.BoolVar(&cmd.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the SQLite database (ignored for postgres)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account. The password is prompted for unless -password-stdin is set.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -name \"Jane Doe\" -email jane@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo \"$PASSWORD\" | %s create-user -name Jane -email jane@example.com -password-stdin\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Name == "" {
		return fmt.Errorf("required flag -name not provided")
	}
	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	if cmd.Password == "" {
		password, err := cmd.readPassword()
		if err != nil {
			return err
		}
		cmd.Password = password
	}

	dbCfg := cmd.cfg.Database
	dbCfg.Path = cmd.DatabasePath

	db, err := database.NewSilentDatabase(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return cmd.create(context.Background(), users.NewRepository(db.DB))
}

func (cmd *CreateUserCommand) create(ctx context.Context, store auth.UserStore) error {
	// Register never issues or checks tokens.
	service, err := auth.NewService(store, nil, nil, cmd.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	user, err := service.Register(ctx, cmd.Name, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Created user %s <%s> with id %s\n", user.Name, user.Email, user.ID)
	return nil
}

func (cmd *CreateUserCommand) readPassword() (string, error) {
	if cmd.PasswordStdin {
		line, err := bufio.NewReader(cmd.stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal, use -password-stdin")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
