// Command useradd creates an account directly against the database. It is
// an operator tool for bootstrapping accounts; the public API offers
// self-service registration.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avolkov/minipost/internal/server/config"
	"github.com/avolkov/minipost/internal/server/repositories/repomanager"
	"github.com/avolkov/minipost/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)

	username, err := GetSimpleText(reader, "Username", os.Stdout)
	if err != nil {
		return err
	}

	email, err := GetSimpleText(reader, "Email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	users, err := services.NewUserService(db, repomanager.NewPostgresRepositoryManager(), cfg)
	if err != nil {
		return err
	}

	user, _, err := users.Register(ctx, services.RegisterParams{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s <%s> (id %s)\n", user.Username, user.Email, user.ID)
	return nil
}
