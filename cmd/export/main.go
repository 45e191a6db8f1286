package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"questboard/internal/datastore"
	"questboard/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "export",
		Commands: []*cli.Command{
			commandExport(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandExport() *cli.Command {
	return &cli.Command{
		Name:  "submissions",
		Usage: "write every submission of a quest as csv",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "quest",
				Usage:    "quest id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output",
				Value: "-",
				Usage: "csv file, - for stdout",
			},
		},
		Action: func(c *cli.Context) error {
			if _, err := env.EnvsRequired("DB_DSN"); err != nil {
				return err
			}

			sqldb := sql.OpenDB(pgdriver.NewConnector(
				pgdriver.WithDSN(os.Getenv("DB_DSN")),
				pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
			))
			db := bun.NewDB(sqldb, pgdialect.New())

			ctx := context.Background()
			questID := c.String("quest")
			if _, err := datastore.GetQuestByID(ctx, db, questID); err != nil {
				return fmt.Errorf("quest %s: %w", questID, err)
			}

			submissions, err := datastore.GetQuestSubmissions(ctx, db, questID)
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if path := c.String("output"); path != "-" {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			if err := writeSubmissions(out, submissions); err != nil {
				return err
			}

			log.Println("Exported:", "quest:", questID, "rows:", len(submissions))
			return nil
		},
	}
}

var submissionHeader = []string{
	"id", "user_id", "task_id", "status", "attempts",
	"xp_earned", "xp_removed", "xp_removal_reason", "xp_removed_by",
	"submitted_at", "verified_at", "xp_removed_at",
}

func writeSubmissions(out io.Writer, submissions []*models.UserTaskSubmission) error {
	w := csv.NewWriter(out)
	if err := w.Write(submissionHeader); err != nil {
		return err
	}

	for _, s := range submissions {
		row := []string{
			s.ID,
			s.UserID,
			s.TaskID,
			string(s.Status),
			strconv.Itoa(s.Attempts),
			strconv.Itoa(s.XPEarned),
			strconv.Itoa(s.XPRemoved),
			optional(s.XPRemovalReason),
			optional(s.XPRemovedBy),
			s.SubmittedAt.UTC().Format(time.RFC3339),
			optionalTime(s.VerifiedAt),
			optionalTime(s.XPRemovedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
