package cli

import (
	"context"
	"fmt"
	"net/http"
)

func newJobsCommand() *Command {
	return &Command{
		Name:        "jobs",
		Description: "Inspect the job queue or trigger an expired role audit (system users)",
		Run:         runJobs,
	}
}

func runJobs(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: jobs status|trigger", ErrUsage)
	}
	switch args[0] {
	case "status":
		fs := newFlagSet(env, "jobs status")
		output := fs.String("output", "table", "Output format: table or json")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		c, _, err := session(env)
		if err != nil {
			return err
		}
		var out any
		if err := c.Do(ctx, http.MethodGet, "/jobs", nil, &out); err != nil {
			return err
		}
		return render(env.Stdout, *output, []string{"queue", "pending", "active", "scheduled", "retry", "failed"}, out)
	case "trigger":
		fs := newFlagSet(env, "jobs trigger")
		customer := fs.String("customer", "", "Audit only this customer")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		params := map[string]any{"task": "rbac:expired_roles_audit"}
		if *customer != "" {
			params["customer_id"] = *customer
		}
		c, _, err := session(env)
		if err != nil {
			return err
		}
		var out struct {
			ID    string `json:"id"`
			Task  string `json:"task"`
			Queue string `json:"queue"`
		}
		if err := c.Do(ctx, http.MethodPost, "/jobs", params, &out); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "enqueued %s as %s on %s\n", out.Task, out.ID, out.Queue)
		return nil
	default:
		return fmt.Errorf("%w: unknown jobs subcommand %q", ErrUsage, args[0])
	}
}
