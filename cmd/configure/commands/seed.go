package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kwhite/taskpulse/internal/config"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/models"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var userIDFlag string
	var email string
	var name string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data for a user",
		Long:  "Insert a demo profile, tasks, subtasks, and events for the given user ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userIDFlag)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()
			if err := seed(ctx, db, userID, email, name); err != nil {
				return err
			}

			fmt.Printf("Seeded demo data for user %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userIDFlag, "user", "", "User UUID to seed data for (required)")
	cmd.Flags().StringVar(&email, "email", "demo@example.com", "Email for the seeded profile")
	cmd.Flags().StringVar(&name, "name", "Demo User", "Name for the seeded profile")
	if err := cmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}

	return cmd
}

func seed(ctx context.Context, db *database.DB, userID uuid.UUID, email, name string) error {
	profileRepo := database.NewProfileRepository(db)
	taskRepo := database.NewTaskRepository(db)
	subtaskRepo := database.NewSubtaskRepository(db)
	eventRepo := database.NewEventRepository(db)

	if _, err := profileRepo.GetByUserID(ctx, userID); err != nil {
		profile := &models.ProfileRow{
			ID:     uuid.New(),
			UserID: userID,
			Name:   name,
			Email:  email,
		}
		if err := profileRepo.Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}

	today := time.Now().Format("2006-01-02")
	priority := "High"
	status := "pending"
	description := "Walk through the quarterly numbers before the review"

	task := &models.TaskRow{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "Prepare quarterly review",
		Description: &description,
		DueDate:     &today,
		Priority:    &priority,
		Status:      &status,
	}
	if err := taskRepo.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to seed task: %w", err)
	}

	subtasks := []string{"Collect metrics", "Draft slides"}
	for _, title := range subtasks {
		row := &models.SubtaskRow{
			ID:     uuid.New(),
			TaskID: task.ID,
			UserID: userID,
			Title:  title,
		}
		if err := subtaskRepo.Create(ctx, row); err != nil {
			return fmt.Errorf("failed to seed subtask: %w", err)
		}
	}

	start := time.Now().Truncate(24 * time.Hour).Add(9 * time.Hour)
	tag := "Work"
	event := &models.EventRow{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "Team standup",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		EventDate: today,
		Tag:       &tag,
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to seed event: %w", err)
	}

	return nil
}
