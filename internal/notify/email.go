// Package notify sends alert emails through SendGrid. The only alert the
// tracking core raises is the overtime crossing: a reconciliation that pushes
// a user's consumed minutes past the monthly allotment.
package notify

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/timefmt"
)

type EmailNotifier struct {
	apiKey      string
	fromName    string
	fromAddress string
}

func NewEmailNotifierFromEnv() *EmailNotifier {
	return &EmailNotifier{
		apiKey:      os.Getenv("EMAIL_API_KEY"),
		fromName:    os.Getenv("FROM_NAME"),
		fromAddress: os.Getenv("FROM_ADDRESS"),
	}
}

func (n *EmailNotifier) NotifyOvertime(user repository.User, month string, overtimeMinutes int) error {
	if user.Email == "" {
		return fmt.Errorf("no email address for user %s", user.ID)
	}

	subject := fmt.Sprintf("Overtime recorded for %s", month)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour tracked hours for %s exceed the monthly allotment by %s.",
		user.Name,
		month,
		timefmt.FormatMinutes(overtimeMinutes),
	)

	from := mail.NewEmail(n.fromName, n.fromAddress)
	to := mail.NewEmail(user.Name, user.Email)
	email := mail.NewSingleEmail(from, subject, to, body, body)
	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send overtime alert: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	log.Printf("Overtime alert sent to %s (status: %d)", user.Email, response.StatusCode)
	return nil
}
