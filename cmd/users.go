package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// UsersList prints stored accounts.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer a.db.Close()

	users, err := a.accounts.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", styles.title.Render(fmt.Sprintf("Users (%d)", len(users))))
	if len(users) == 0 {
		return r.writePlain("%s\n", styles.help.Render("No users yet. Create one with POST /users."))
	}

	for _, u := range users {
		r.writePlain("%s %s %s <%s>\n", styles.ok.Render(u.Username), u.FirstName, u.LastName, u.Email)
		r.writePlain("  %s\n", styles.help.Render(u.ID))
	}
	return nil
}
