package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modular-admin/modular-admin/internal/client"
)

type seedFile struct {
	Customer struct {
		Name        string `yaml:"name"`
		DisplayName string `yaml:"display_name"`
		Admin       struct {
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"admin"`
	} `yaml:"customer"`
	Policies []map[string]any `yaml:"policies"`
	Roles    []map[string]any `yaml:"roles"`
	Users    []map[string]any `yaml:"users"`
	Tenants  []map[string]any `yaml:"tenants"`
}

func main() {
	server := flag.String("server", getenv("MODULAR_SERVER", "http://localhost:8080"), "API server URL")
	path := flag.String("file", "scripts/seed/demo.yaml", "Seed document")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read seed: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	anonymous := client.New(*server)
	fmt.Println("→ Signing up customer...")
	err = anonymous.Do(ctx, http.MethodPost, "/signup", map[string]any{
		"name":         seed.Customer.Name,
		"display_name": seed.Customer.DisplayName,
		"username":     seed.Customer.Admin.Username,
		"password":     seed.Customer.Admin.Password,
	}, nil)
	if err := tolerateExisting(err); err != nil {
		log.Fatalf("sign up: %v", err)
	}

	token, err := anonymous.SignIn(ctx, seed.Customer.Name, seed.Customer.Admin.Username, seed.Customer.Admin.Password)
	if err != nil {
		log.Fatalf("sign in: %v", err)
	}
	admin := client.New(*server, client.WithToken(token.AccessToken))

	steps := []struct {
		label    string
		endpoint string
		docs     []map[string]any
	}{
		{"policies", "/policies", seed.Policies},
		{"roles", "/roles", seed.Roles},
		{"users", "/users", seed.Users},
		{"tenants", "/tenants", seed.Tenants},
	}
	for _, step := range steps {
		fmt.Printf("→ Seeding %s...\n", step.label)
		for _, doc := range step.docs {
			if err := tolerateExisting(admin.Do(ctx, http.MethodPost, step.endpoint, doc, nil)); err != nil {
				log.Fatalf("seed %s %v: %v", step.label, doc["name"], err)
			}
		}
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// tolerateExisting lets the seed run repeatedly.
func tolerateExisting(err error) error {
	if client.IsStatus(err, http.StatusConflict) {
		return nil
	}
	return err
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
