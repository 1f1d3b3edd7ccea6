// Command devtoken prints a signed bearer token for local development.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/partyplanner/studio/backend-go/internal/auth"
	"github.com/partyplanner/studio/backend-go/internal/config"
	"github.com/partyplanner/studio/backend-go/internal/typeid"
)

func main() {
	userID := flag.String("user", "", "user id to issue the token for (default: a new id)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	if *userID == "" {
		*userID = typeid.NewUserID()
	}

	token, err := auth.NewService(cfg.JWTSecret).IssueToken(*userID)
	if err != nil {
		slog.Error("issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
