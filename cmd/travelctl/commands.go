package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pribylovaa/go-travel-planner/internal/models"
)

const usage = `usage: travelctl [--config path] <command> [flags]

commands:
  useradd     --email E [--first-name F] [--last-name L] [--password-stdin]
  activate    --email E
  deactivate  --email E
`

// readPassword — подменяемая в тестах обёртка над term.ReadPassword.
var readPassword = term.ReadPassword

// ErrUnknownCommand — неизвестная подкоманда.
var ErrUnknownCommand = errors.New("unknown command")

// admin — операции сервиса, которые использует travelctl.
type admin interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	SetUserActive(ctx context.Context, email string, active bool) error
}

func run(ctx context.Context, svc admin, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: none given", ErrUnknownCommand)
	}

	switch args[0] {
	case "useradd":
		return userAdd(ctx, svc, args[1:], in, out)
	case "activate":
		return setActive(ctx, svc, args[0], args[1:], true, out)
	case "deactivate":
		return setActive(ctx, svc, args[0], args[1:], false, out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
}

func userAdd(ctx context.Context, svc admin, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		nu            models.NewUser
		passwordStdin bool
	)
	fs.StringVar(&nu.Email, "email", "", "user email")
	fs.StringVar(&nu.FirstName, "first-name", "", "first name")
	fs.StringVar(&nu.LastName, "last-name", "", "last name")
	fs.BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if nu.Email == "" {
		return errors.New("useradd: --email is required")
	}

	pw, err := promptPassword(in, out, passwordStdin)
	if err != nil {
		return fmt.Errorf("useradd: read password: %w", err)
	}
	nu.Password = pw

	user, err := svc.CreateUser(ctx, nu)
	if err != nil {
		return fmt.Errorf("useradd: %w", err)
	}

	fmt.Fprintf(out, "created user %s (%s)\n", user.Email, user.ID)

	return nil
}

func setActive(ctx context.Context, svc admin, name string, args []string, active bool, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	var email string
	fs.StringVar(&email, "email", "", "user email")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if email == "" {
		return fmt.Errorf("%s: --email is required", name)
	}

	if err := svc.SetUserActive(ctx, email, active); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(out, "%s %s\n", state, email)

	return nil
}

// promptPassword читает пароль из stdin (одна строка) или с терминала без эха.
func promptPassword(in io.Reader, out io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	return string(pw), nil
}
