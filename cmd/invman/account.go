package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/dashboard"
	"github.com/erazemk/invman/internal/model"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("INVMAN_PASSWORD"), "password (default: INVMAN_PASSWORD or prompt)")
	admin := fs.Bool("admin", false, "sign in through the admin panel")
	if err := a.connect(fs, args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.prompt("Password: "); err != nil {
			return err
		}
	}

	s, err := a.client.Login(ctx, *email, *password, *admin)
	if err != nil {
		// A 401 here is a wrong password, not an expired session.
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return errors.New(apiErr.Message)
		}
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.User.Username, s.User.Privileges)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	fs := a.flags("logout")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	fs := a.flags("whoami")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	u, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Username\t%s\n", u.Username)
	fmt.Fprintf(tw, "Role\t%s\n", u.Privileges)
	return tw.Flush()
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := a.flags("signup")
	var req client.SignupRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Username, "username", "", "display name")
	fs.StringVar(&req.Password, "password", os.Getenv("INVMAN_PASSWORD"), "password (default: INVMAN_PASSWORD or prompt)")
	role := fs.String("role", "stock keeper", "admin, inventory manager or stock keeper (or 3, 1, 2)")
	if err := a.connect(fs, args); err != nil {
		return err
	}

	var err error
	if req.Privileges, err = model.ParseRole(*role); err != nil {
		return err
	}
	for _, f := range []struct {
		v     *string
		label string
	}{
		{&req.Email, "Email: "},
		{&req.Username, "Username: "},
		{&req.Password, "Password: "},
	} {
		if *f.v == "" {
			if *f.v, err = a.prompt(f.label); err != nil {
				return err
			}
		}
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		return err
	}

	u, err := a.client.Signup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s <%s> as %s; sign in with 'invman login'\n", u.Username, u.Email, u.Privileges)
	return nil
}

func runPasswd(ctx context.Context, a *app, args []string) error {
	fs := a.flags("passwd")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	current, err := a.prompt("Current password: ")
	if err != nil {
		return err
	}
	next, err := a.prompt("New password: ")
	if err != nil {
		return err
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}
	if err := a.client.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func runUsers(ctx context.Context, a *app, args []string) error {
	fs := a.flags("users")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	users, err := a.client.Users(ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tEMAIL\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Username, u.Privileges, u.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := a.flags("dashboard")
	threshold := fs.Int("low", model.DefaultLowStockThreshold, "low stock threshold")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	// Confirms the session is still valid before fanning out.
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	user, err := a.user()
	if err != nil {
		return err
	}
	user.Privileges = me.Privileges

	d, err := dashboard.Build(ctx, a.client, *user, *threshold)
	if err != nil {
		return err
	}
	return d.Render(a.out)
}
