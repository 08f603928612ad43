package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Skotchmaster/flower_shop/internal/config"
	"github.com/Skotchmaster/flower_shop/internal/db"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

func usage() {
	fmt.Println("usage: cli create-admin -username NAME -password PASS [-role master|editor|viewer] [-name DISPLAY]")
	fmt.Println("       cli sweep-sessions")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-admin":
		cmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
		username := cmd.String("username", "", "login of the new admin")
		password := cmd.String("password", "", "password, at least 8 characters")
		role := cmd.String("role", string(roles.Master), "master, editor or viewer")
		name := cmd.String("name", "", "display name")
		_ = cmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			cmd.PrintDefaults()
			os.Exit(1)
		}
		createAdmin(*username, *password, *name, roles.Role(*role))
	case "sweep-sessions":
		sweepSessions()
	default:
		usage()
		os.Exit(1)
	}
}

func openRepo(ctx context.Context) *repo.GormRepo {
	cfg := config.Load()
	gdb, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBDriver)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	// the CLI may run before the server has ever migrated
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	return &repo.GormRepo{DB: gdb}
}

func createAdmin(username, password, name string, role roles.Role) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r := openRepo(ctx)
	defer db.Close(r.DB)

	u, err := (&service.UserService{Repo: r}).Create(ctx, transport.CreateUserRequest{
		Username: username,
		Name:     name,
		Password: password,
		Role:     role,
	})
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	fmt.Printf("admin %q created with role %s (id %s)\n", u.Username, u.Role, u.ID)
}

func sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r := openRepo(ctx)
	defer db.Close(r.DB)

	n, err := r.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		log.Fatalf("failed to sweep sessions: %v", err)
	}
	fmt.Printf("removed %d expired sessions\n", n)
}
