package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mmynk/gathersync/internal/auth"
	"github.com/mmynk/gathersync/internal/session"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireCloud(); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}

	password, err := a.password("Password: ")
	if err != nil {
		return err
	}
	token, user, err := a.cloud.Login(ctx, auth.NormalizeEmail(*email), password)
	if err != nil {
		return err
	}
	return a.startSession(ctx, token, user)
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	email := fs.String("email", "", "Account email")
	name := fs.String("name", "", "Display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireCloud(); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}

	password, err := a.password("Password: ")
	if err != nil {
		return err
	}
	confirm, err := a.password("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	token, user, err := a.cloud.Register(ctx, auth.NormalizeEmail(*email), *name, password)
	if err != nil {
		return err
	}
	return a.startSession(ctx, token, user)
}

// startSession backs up the device, stores the session and brings the device
// in line with the cloud. An empty cloud receives this device's events.
func (a *App) startSession(ctx context.Context, token string, user session.Profile) error {
	if _, err := a.backups.CreateBackup(ctx, "Before cloud migration"); err != nil {
		a.logger.Warn("Backup before cloud migration failed", "error", err)
	}
	if err := a.session.Save(ctx, token, user); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)

	events, err := a.store.Events.GetAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d events available\n", len(events))
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if err := a.flags("logout").Parse(args); err != nil {
		return err
	}
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out. Local data is kept on this device.")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if err := a.flags("whoami").Parse(args); err != nil {
		return err
	}
	if !session.IsAuthenticated(ctx, a.session) {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	user := a.session.UserInfo(ctx)
	fmt.Fprintf(a.out, "%s (%s)\n", user.DisplayName, user.Email)
	return nil
}

func (a *App) pushToken(ctx context.Context, args []string) error {
	fs := a.flags("push-token")
	token := fs.String("token", "", "Expo push token")
	device := fs.String("device", "", "Device identifier")
	platform := fs.String("platform", "ios", "Device platform (ios, android, web)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireCloud(); err != nil {
		return err
	}
	if !session.IsAuthenticated(ctx, a.session) {
		return errors.New("sign in first")
	}
	if err := a.cloud.RegisterPushToken(ctx, *token, *device, *platform); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Push token registered")
	return nil
}

// readPassword reads a password without echo. When input is not a terminal
// it reads one line instead.
func (a *App) readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
