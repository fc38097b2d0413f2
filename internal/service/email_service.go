package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"examquiz/internal/logger"
	"examquiz/internal/validation"
)

// sesAPI is the part of the SES client the email service needs
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	recipients []string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. Sweep reports go to recipients.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, recipients []string, log *logger.Logger) (*EmailService, error) {
	recipients, invalid := validation.SplitEmails(recipients)
	if len(invalid) > 0 {
		log.Warn("ignoring invalid report recipients", "count", len(invalid))
	}

	// If fromEmail is empty, create a disabled service
	if fromEmail == "" || len(recipients) == 0 {
		log.Info("email service disabled", "reason", "SES_FROM_EMAIL or REVIEW_REPORT_EMAILS not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	log.Debug("initializing email service with AWS SES", "region", awsRegion, "from_name", fromName)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "region", awsRegion, "recipients", len(recipients))
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, recipients, log), nil
}

func newEmailService(client sesAPI, fromEmail, fromName string, recipients []string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		recipients: recipients,
		enabled:    true,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendSweepReport tells reviewers which questions the auto-reject sweep rejected
func (s *EmailService) SendSweepReport(ctx context.Context, report SweepReport) error {
	if !s.enabled {
		s.log.Debug("skipping sweep report (email disabled)", "rejected", report.Rejected)
		return nil
	}

	subject := fmt.Sprintf("Exam Quiz: %d question(s) auto-rejected", report.Rejected)

	var rows, lines strings.Builder
	for _, q := range report.Questions {
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%.2f</td><td>%.2f</td></tr>\n", q.QuestionID, q.AvgCorrectLength, q.AvgIncorrectLength)
		fmt.Fprintf(&lines, "- question %d: correct %.2f chars, incorrect %.2f chars\n", q.QuestionID, q.AvgCorrectLength, q.AvgIncorrectLength)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		table { border-collapse: collapse; }
		td, th { border: 1px solid #ddd; padding: 4px 12px; text-align: right; }
	</style>
</head>
<body>
	<p>The auto-reject sweep scanned %d approved question(s) and rejected %d.
	%d were skipped and %d could not be parsed.</p>
	<table>
		<tr><th>Question</th><th>Avg correct length</th><th>Avg incorrect length</th></tr>
		%s
	</table>
	<p>Rejected questions keep their content and can be re-approved from the review queue.</p>
</body>
</html>
`, report.Scanned, report.Rejected, report.Skipped, report.Failed, rows.String())

	textBody := fmt.Sprintf(`The auto-reject sweep scanned %d approved question(s) and rejected %d.
%d were skipped and %d could not be parsed.

%s
Rejected questions keep their content and can be re-approved from the review queue.
`, report.Scanned, report.Rejected, report.Skipped, report.Failed, lines.String())

	return s.sendEmail(ctx, s.recipients, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("email sent", "subject", subject, "recipients", len(to), "message_id", messageID)
	return nil
}
