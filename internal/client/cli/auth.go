package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/client/client"
	"github.com/dmitrijs2005/cashcare/internal/common"
)

// Indirections so tests can feed input without a terminal.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Enter phone (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	var id string
	err = a.call(ctx, func(ctx context.Context) error {
		id, err = a.session.Register(ctx, email, password, name, phone)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered, user id %s. You can log in now.\n", id)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.call(ctx, func(ctx context.Context) error {
		return a.session.Login(ctx, email, password)
	})
	if err != nil {
		return err
	}
	a.email = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	return a.call(ctx, func(ctx context.Context) error {
		p, err := a.session.WhoAmI(ctx)
		if err != nil {
			return a.sessionLost(err)
		}
		fmt.Fprintf(a.out, "id:    %s\nemail: %s\nname:  %s\nphone: %s\n", p.UserID, p.Email, p.Name, p.Phone)
		return nil
	})
}

func (a *App) Refresh(ctx context.Context) error {
	return a.call(ctx, func(ctx context.Context) error {
		exp, err := a.session.Refresh(ctx)
		if err != nil {
			return a.sessionLost(err)
		}
		fmt.Fprintf(a.out, "Session extended until %s\n", exp.Local().Format(time.RFC1123))
		return nil
	})
}

func (a *App) Logout(ctx context.Context) error {
	err := a.call(ctx, a.session.Logout)
	a.email = ""
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("local session removed, server not notified: %w", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// sessionLost tells the user to log in again when the server no longer
// accepts the session.
func (a *App) sessionLost(err error) error {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotLoggedIn) {
		a.email = ""
		return fmt.Errorf("%w, please log in", err)
	}
	return err
}
