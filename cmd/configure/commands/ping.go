package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kwhite/taskpulse/internal/config"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/queue"
)

// NewPingCmd creates the ping command
func NewPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check backing service connectivity",
		Long:  "Ping the database, Redis, and RabbitMQ using the loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			failed := false

			db, err := database.New(cfg.DatabaseURL)
			if err == nil {
				err = db.PingContext(ctx)
				if closeErr := db.Close(); closeErr != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", closeErr)
				}
			}
			failed = report("database", err) || failed

			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err == nil {
				client := redis.NewClient(redisOpts)
				err = client.Ping(ctx).Err()
				if closeErr := client.Close(); closeErr != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close redis client: %v\n", closeErr)
				}
			}
			failed = report("redis", err) || failed

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err == nil {
				err = jobQueue.HealthCheck(ctx)
				if closeErr := jobQueue.Close(); closeErr != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close rabbitmq connection: %v\n", closeErr)
				}
			}
			failed = report("rabbitmq", err) || failed

			if failed {
				return fmt.Errorf("one or more backing services are unreachable")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Overall timeout for all checks")

	return cmd
}

// report prints one check result and returns whether it failed
func report(name string, err error) bool {
	if err != nil {
		fmt.Printf("✗ %s: %v\n", name, err)
		return true
	}
	fmt.Printf("✓ %s\n", name)
	return false
}
