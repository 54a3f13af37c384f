package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type resource struct {
	singular string
	endpoint string
	key      string
	columns  []string
}

var resources = map[string]resource{
	"customers":   {singular: "customer", endpoint: "/customers", key: "customer_id", columns: []string{"name", "display_name", "created_at"}},
	"tenants":     {singular: "tenant", endpoint: "/tenants", key: "name", columns: []string{"name", "display_name", "active"}},
	"roles":       {singular: "role", endpoint: "/roles", key: "name", columns: []string{"name", "policies", "expiration"}},
	"policies":    {singular: "policy", endpoint: "/policies", key: "name", columns: []string{"name", "permissions"}},
	"users":       {singular: "user", endpoint: "/users", key: "username", columns: []string{"username", "role", "created_at"}},
	"permissions": {singular: "permission", endpoint: "/permissions", columns: []string{"permission", "description"}},
}

func lookupResource(name string) (resource, error) {
	res, ok := resources[strings.ToLower(name)]
	if !ok {
		return resource{}, fmt.Errorf("%w: unknown resource %q", ErrUsage, name)
	}
	return res, nil
}

// splitResource separates the leading resource argument from its flags.
func splitResource(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: resource required", ErrUsage)
	}
	return args[0], args[1:], nil
}

func newGetCommand() *Command {
	return &Command{
		Name:        "get",
		Description: "List or describe resources",
		Run:         runGet,
	}
}

func runGet(ctx context.Context, env *Env, args []string) error {
	name, rest, err := splitResource(args)
	if err != nil {
		return err
	}
	res, err := lookupResource(name)
	if err != nil {
		return err
	}
	fs := newFlagSet(env, "get")
	entity := fs.String("name", "", "Describe one entity by name")
	customer := fs.String("customer", "", "Customer (system callers only)")
	limit := fs.Int("limit", 0, "Page size")
	next := fs.String("next-token", "", "Continue from a previous page")
	output := fs.String("output", "table", "Output format: table or json")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	params := map[string]any{}
	if *customer != "" {
		params["customer_id"] = *customer
	}
	if *entity != "" && res.key != "" {
		params[res.key] = *entity
	}
	if *limit > 0 {
		params["limit"] = *limit
	}
	if *next != "" {
		params["next_token"] = *next
	}

	c, _, err := session(env)
	if err != nil {
		return err
	}
	var out any
	if err := c.Do(ctx, http.MethodGet, res.endpoint, params, &out); err != nil {
		return err
	}
	return render(env.Stdout, *output, res.columns, out)
}

func newCreateCommand() *Command {
	return &Command{
		Name:        "create",
		Description: "Create a resource from a YAML or JSON document",
		Run:         mutation(http.MethodPost),
	}
}

func newUpdateCommand() *Command {
	return &Command{
		Name:        "update",
		Description: "Update a resource from a YAML or JSON document",
		Run:         mutation(http.MethodPatch),
	}
}

func mutation(method string) func(ctx context.Context, env *Env, args []string) error {
	return func(ctx context.Context, env *Env, args []string) error {
		name, rest, err := splitResource(args)
		if err != nil {
			return err
		}
		res, err := lookupResource(name)
		if err != nil {
			return err
		}
		fs := newFlagSet(env, strings.ToLower(method))
		file := fs.String("f", "", "Path to a YAML or JSON document")
		data := fs.String("data", "", "Inline YAML or JSON document")
		output := fs.String("output", "json", "Output format: table or json")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		params, err := readDocument(*file, *data)
		if err != nil {
			return err
		}

		c, _, err := session(env)
		if err != nil {
			return err
		}
		var out any
		if err := c.Do(ctx, method, res.endpoint, params, &out); err != nil {
			return err
		}
		return render(env.Stdout, *output, res.columns, out)
	}
}

func newDeleteCommand() *Command {
	return &Command{
		Name:        "delete",
		Description: "Delete a resource by name",
		Run:         runDelete,
	}
}

func runDelete(ctx context.Context, env *Env, args []string) error {
	name, rest, err := splitResource(args)
	if err != nil {
		return err
	}
	res, err := lookupResource(name)
	if err != nil {
		return err
	}
	if res.key == "" {
		return fmt.Errorf("%w: %s cannot be deleted", ErrUsage, name)
	}
	fs := newFlagSet(env, "delete")
	entity := fs.String("name", "", "Entity name")
	customer := fs.String("customer", "", "Customer (system callers only)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if *entity == "" {
		return fmt.Errorf("%w: --name required", ErrUsage)
	}
	params := map[string]any{res.key: *entity}
	if *customer != "" && res.key != "customer_id" {
		params["customer_id"] = *customer
	}

	c, _, err := session(env)
	if err != nil {
		return err
	}
	if err := c.Do(ctx, http.MethodDelete, res.endpoint, params, nil); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "deleted %s %s\n", res.singular, *entity)
	return nil
}

func newResetPasswordCommand() *Command {
	return &Command{
		Name:        "reset-password",
		Description: "Set a new password for a user",
		Run:         runResetPassword,
	}
}

func runResetPassword(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet(env, "reset-password")
	username := fs.String("username", "", "Username")
	customer := fs.String("customer", "", "Customer (system callers only)")
	password := fs.String("password", "", "New password (defaults to $"+passwordEnv+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = env.Getenv(passwordEnv)
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("%w: --username and a password are required", ErrUsage)
	}
	params := map[string]any{"username": *username, "password": *password}
	if *customer != "" {
		params["customer_id"] = *customer
	}

	c, _, err := session(env)
	if err != nil {
		return err
	}
	if err := c.Do(ctx, http.MethodPost, "/users/reset-password", params, nil); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "password reset for %s\n", *username)
	return nil
}

// readDocument parses a YAML or JSON object from a file or inline text.
func readDocument(path, inline string) (map[string]any, error) {
	var raw []byte
	switch {
	case path != "" && inline != "":
		return nil, fmt.Errorf("%w: use either -f or --data", ErrUsage)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = data
	case inline != "":
		raw = []byte(inline)
	default:
		return nil, fmt.Errorf("%w: -f or --data required", ErrUsage)
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

