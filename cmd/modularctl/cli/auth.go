package cli

import (
	"context"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/client"
)

const passwordEnv = "MODULAR_PASSWORD"

func newSignInCommand() *Command {
	return &Command{
		Name:        "signin",
		Description: "Sign in and store a token",
		Run:         runSignIn,
	}
}

func runSignIn(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet(env, "signin")
	server := fs.String("server", "http://localhost:8080", "API server URL")
	customer := fs.String("customer", "", "Customer name (empty for system users)")
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password (defaults to $"+passwordEnv+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = env.Getenv(passwordEnv)
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("%w: --username and a password are required", ErrUsage)
	}

	token, err := client.New(*server, client.WithHTTPClient(env.HTTPClient)).SignIn(ctx, *customer, *username, *password)
	if err != nil {
		return err
	}
	creds := client.Credentials{
		Server:    *server,
		Customer:  *customer,
		Username:  *username,
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
	}
	if err := client.SaveCredentials(env.CredentialsPath, creds); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "signed in as %s (expires %s)\n", *username, token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func newSignOutCommand() *Command {
	return &Command{
		Name:        "signout",
		Description: "Revoke the stored token",
		Run:         runSignOut,
	}
}

func runSignOut(ctx context.Context, env *Env, args []string) error {
	c, _, err := session(env)
	if err == nil {
		if err := c.SignOut(ctx); err != nil {
			fmt.Fprintf(env.Stderr, "warning: %v\n", err)
		}
	}
	if err := client.RemoveCredentials(env.CredentialsPath); err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, "signed out")
	return nil
}
