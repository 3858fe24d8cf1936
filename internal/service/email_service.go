package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs instead of sending, which keeps local
// development and tests off the network.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{appBaseURL: appBaseURL, enabled: false, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// Dispatch runs an email send in the background. Delivery is best effort;
// failures are logged and never surfaced to the request that triggered them.
func (s *EmailService) Dispatch(name string, send func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Email dispatch panic (%s): %v", name, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("Email dispatch failed (%s): %v", name, err)
		}
	}()
}

// SendHangApprovalEmail asks a parent to approve or decline their child
// joining a hang. Both decisions are one-click links.
func (s *EmailService) SendHangApprovalEmail(ctx context.Context, toEmail, childName, hangTitle string, scheduledAt time.Time, approveToken, declineToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): hang approval to %s", toEmail)
		return nil
	}

	approveLink := fmt.Sprintf("%s/approve/%s", s.appBaseURL, approveToken)
	declineLink := fmt.Sprintf("%s/approve/%s", s.appBaseURL, declineToken)
	when := scheduledAt.Format("Monday, January 2 at 3:04 PM")

	subject := fmt.Sprintf("%s wants to join a hang", childName)
	htmlBody := emailHTML(subject, fmt.Sprintf(`
			<p>Hi,</p>
			<p><strong>%s</strong> wants to join <strong>%s</strong> on %s.</p>
			<p>Hangs only go ahead with your okay. Choose below:</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Approve</a>
				&nbsp;&nbsp;
				<a href="%s" class="button decline">Decline</a>
			</p>
			<p>These links expire in 7 days and can only be used once.</p>
`, childName, hangTitle, when, approveLink, declineLink))

	textBody := fmt.Sprintf(`Hi,

%s wants to join "%s" on %s.

Hangs only go ahead with your okay.

Approve: %s
Decline: %s

These links expire in 7 days and can only be used once.
`, childName, hangTitle, when, approveLink, declineLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendQRApprovalEmail asks the parent of a QR-invited kid to approve the new
// friendship before any account exists
func (s *EmailService) SendQRApprovalEmail(ctx context.Context, toEmail, inviteeName, inviterName, approveToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): QR approval to %s", toEmail)
		return nil
	}

	approveLink := fmt.Sprintf("%s/invite/approve/%s", s.appBaseURL, approveToken)
	declineLink := fmt.Sprintf("%s/invite/decline/%s", s.appBaseURL, approveToken)

	subject := fmt.Sprintf("%s wants to be friends with %s on HangHub", inviterName, inviteeName)
	htmlBody := emailHTML(subject, fmt.Sprintf(`
			<p>Hi,</p>
			<p>Your child <strong>%s</strong> scanned a friend invite from <strong>%s</strong> on HangHub, an app where kids plan meetups that parents approve.</p>
			<p>Nothing happens without you: no account is created until you say so.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Approve</a>
				&nbsp;&nbsp;
				<a href="%s" class="button decline">Decline</a>
			</p>
`, inviteeName, inviterName, approveLink, declineLink))

	textBody := fmt.Sprintf(`Hi,

Your child %s scanned a friend invite from %s on HangHub, an app where kids plan meetups that parents approve.

Nothing happens without you: no account is created until you say so.

Approve: %s
Decline: %s
`, inviteeName, inviterName, approveLink, declineLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendQRSignupEmail delivers the signup link after a parent approved a QR
// invite
func (s *EmailService) SendQRSignupEmail(ctx context.Context, toEmail, inviteeName, signupToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): QR signup to %s", toEmail)
		return nil
	}

	signupLink := fmt.Sprintf("%s/invite/signup?token=%s", s.appBaseURL, signupToken)

	subject := fmt.Sprintf("Finish setting up %s's HangHub account", inviteeName)
	htmlBody := emailHTML(subject, fmt.Sprintf(`
			<p>Hi,</p>
			<p>Thanks for approving! Use the link below to create %s's account. You pick the username and PIN together.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Create Account</a>
			</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
`, inviteeName, signupLink, signupLink))

	textBody := fmt.Sprintf(`Hi,

Thanks for approving! Use the link below to create %s's account. You pick the username and PIN together.

%s
`, inviteeName, signupLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendVerificationEmail sends the address verification link to a new parent
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, verificationToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): verification to %s", toEmail)
		return nil
	}

	verifyLink := fmt.Sprintf("%s/auth/verify?token=%s", s.appBaseURL, verificationToken)

	subject := "Verify your HangHub email"
	htmlBody := emailHTML(subject, fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Welcome to HangHub! Confirm your email address so we can send you approval requests when your kids plan meetups.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Verify Email</a>
			</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
`, toName, verifyLink, verifyLink))

	textBody := fmt.Sprintf(`Hi %s,

Welcome to HangHub! Confirm your email address so we can send you approval requests when your kids plan meetups.

%s
`, toName, verifyLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// emailHTML wraps body content in the shared message layout
func emailHTML(title, content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #10b981; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #10b981; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.button.decline { background-color: #ef4444; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
%s
		</div>
		<div class="footer">
			<p>This is an automated email from HangHub. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, title, content)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: to=%s, subject=%s", toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
