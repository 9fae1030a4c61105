package task

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// WelcomeEmail greets a newly registered user.
func WelcomeEmail(mailer Mailer, email, username string) Job {
	return Job{
		Name: "welcome_email",
		Run: func(ctx context.Context) error {
			subject := fmt.Sprintf("Welcome %s!", username)
			body := fmt.Sprintf("Thank you for registering, %s. Welcome to our platform!", username)
			return mailer.Send(ctx, email, subject, body)
		},
	}
}

// TokenCleaner removes tokens that outlived their lifetime.
type TokenCleaner interface {
	CleanupExpiredTokens(now time.Time) (int64, error)
}

// TokenCleanup builds the job that deletes expired tokens.
func TokenCleanup(cleaner TokenCleaner, log zerolog.Logger) Job {
	return Job{
		Name: "cleanup_expired_tokens",
		Run: func(ctx context.Context) error {
			removed, err := cleaner.CleanupExpiredTokens(time.Now())
			if err != nil {
				return err
			}
			log.Info().Int64("removed", removed).Msg("expired tokens cleaned up")
			return nil
		},
	}
}

// Every enqueues job on each tick until ctx is done. A non-positive interval
// disables the schedule.
func Every(ctx context.Context, interval time.Duration, q Enqueuer, job Job) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Enqueue(job)
		}
	}
}
