package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/term"

	"github.com/MrJamesThe3rd/subtrack/internal/auth"
	authStore "github.com/MrJamesThe3rd/subtrack/internal/auth/store"
	"github.com/MrJamesThe3rd/subtrack/internal/config"
	"github.com/MrJamesThe3rd/subtrack/internal/database"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("adduser")

	var (
		email     = fs.StringLong("email", "", "Email address used to log in")
		firstName = fs.StringLong("first-name", "", "First name")
		lastName  = fs.StringLong("last-name", "", "Last name")
		password  = fs.StringLong("password", "", "Password (prompted when omitted)")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("SUBTRACK")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	if *email == "" {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return errors.New("missing required flag: --email")
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(stdout, "Password: ")

		var err error
		if pw, err = readPassword(stdin); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		fmt.Fprintln(stdout)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	if cfg.Migrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			return err
		}
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := auth.NewService(authStore.New(db), auth.Config{})

	u, err := svc.CreateUser(ctx, auth.CreateUserParams{
		Email:     *email,
		Password:  pw,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created with ID %s\n", u.Email, u.ID)

	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}
