package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/domain"
	"github.com/spec-kit/dashboard/internal/guard"
)

const usage = `usage: dashctl <command> [args]

commands:
  status                          show the current session
  login <email>                   sign in (password is prompted)
  register [flags]                create an account (password is prompted)
  forgot-password <email>         email a password reset link
  reset-password <token>          set a new password (prompted)
  magic-link request <email>      email a sign-in link
  magic-link auth <token>         sign in with a link token
  confirm-email <email>           resend the confirmation email
  logout                          sign out
  open <route>                    show what the navigation guard does
  strength                        score a password (prompted)`

var (
	errUsage            = errors.New("invalid usage")
	errPasswordMismatch = errors.New("passwords do not match")
)

// prompter reads a secret or a line from the user.
type prompter interface {
	Secret(label string) (string, error)
}

type cli struct {
	machine *auth.Machine
	guard   *guard.Guard
	out     io.Writer
	prompt  prompter
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return c.status()
	case "login":
		email, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		password, err := c.prompt.Secret("Password: ")
		if err != nil {
			return err
		}
		if err := c.machine.Login(ctx, email, password); err != nil {
			return c.failed(err)
		}
		return c.status()
	case "register":
		return c.register(ctx, rest)
	case "forgot-password":
		email, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		return c.message(c.machine.RequestPasswordReset(ctx, email, ""))
	case "reset-password":
		token, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		password, err := c.newPassword("New password: ")
		if err != nil {
			return err
		}
		return c.message(c.machine.ResetPassword(ctx, token, password))
	case "magic-link":
		return c.magicLink(ctx, rest)
	case "confirm-email":
		email, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		return c.message(c.machine.RequestEmailConfirmation(ctx, email))
	case "logout":
		c.machine.Logout(ctx)
		return c.status()
	case "open":
		route, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		decision := c.guard.Decide(route, c.machine)
		if decision.Action == guard.Redirect {
			fmt.Fprintf(c.out, "redirect %s\n", decision.Target)
		} else {
			fmt.Fprintf(c.out, "render %s\n", guard.Normalize(route))
		}
		return nil
	case "strength":
		password, err := c.prompt.Secret("Password: ")
		if err != nil {
			return err
		}
		score := auth.PasswordScore(password)
		fmt.Fprintf(c.out, "%d/4 %s\n", score, auth.StrengthLabel(score))
		return nil
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	}

	fmt.Fprintln(c.out, usage)
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.out)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	birthDate := fs.String("birth-date", "", "birth date as DD/MM/YYYY")
	nationalID := fs.String("national-id", "", "national id (11 digits)")
	role := fs.String("role", string(domain.RoleClient), "owner, employee or client")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	password, err := c.newPassword("Password: ")
	if err != nil {
		return err
	}
	parsedRole, _ := domain.ParseRole(*role)
	principal, err := c.machine.Register(ctx, auth.RegistrationInput{
		Name:       strings.TrimSpace(*name),
		Email:      strings.TrimSpace(*email),
		Password:   password,
		BirthDate:  *birthDate,
		NationalID: *nationalID,
		Role:       parsedRole,
	})
	if err != nil {
		return c.failed(err)
	}
	fmt.Fprintf(c.out, "registered %s <%s>; confirm your email, then log in\n", principal.Name, principal.Email)
	return nil
}

// newPassword asks twice and requires both entries to match.
func (c *cli) newPassword(label string) (string, error) {
	password, err := c.prompt.Secret(label)
	if err != nil {
		return "", err
	}
	confirm, err := c.prompt.Secret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errPasswordMismatch
	}
	return password, nil
}

func (c *cli) magicLink(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: magic-link request <email> | magic-link auth <token>", errUsage)
	}
	switch args[0] {
	case "request":
		return c.message(c.machine.RequestMagicLink(ctx, args[1], ""))
	case "auth":
		if err := c.machine.AuthenticateViaLink(ctx, args[1]); err != nil {
			return c.failed(err)
		}
		return c.status()
	}
	return fmt.Errorf("%w: unknown magic-link action %q", errUsage, args[0])
}

func (c *cli) status() error {
	st := c.machine.State()
	if p, ok := st.Principal(); ok {
		fmt.Fprintf(c.out, "%s: %s <%s>\n", st.Status(), p.Name, p.Email)
		return nil
	}
	if st.Err != "" {
		fmt.Fprintf(c.out, "%s: %s\n", st.Status(), st.Err)
		return nil
	}
	fmt.Fprintln(c.out, st.Status())
	return nil
}

func (c *cli) message(msg string, err error) error {
	if err != nil {
		return c.failed(err)
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

// failed reports the user-facing message and keeps err for errors.Is.
func (c *cli) failed(err error) error {
	return fmt.Errorf("%s: %w", auth.FailureMessage(err), err)
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%w: %s takes exactly one argument", errUsage, cmd)
	}
	return strings.TrimSpace(args[0]), nil
}
