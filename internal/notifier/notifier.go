package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// SESClient is the slice of the SES v2 API the notifier uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Config carries the email credentials and addressing. Any missing piece
// turns the notifier into a warning no-op.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	From            string
	To              []string
}

func (c Config) complete() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.From != "" && len(c.To) > 0
}

// EmailNotifier sends one alert email per run through Amazon SES.
type EmailNotifier struct {
	cfg    Config
	client SESClient
	logger *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) *EmailNotifier {
	n := &EmailNotifier{
		cfg:    cfg,
		logger: logger.With("component", "notifier"),
	}

	if !cfg.complete() {
		return n
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		n.logger.Error("failed to configure email client, notifications disabled", "error", err)
		return n
	}

	n.client = sesv2.NewFromConfig(awsCfg)
	return n
}

// NewWithClient injects an SES client directly.
func NewWithClient(cfg Config, client SESClient, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "notifier"),
	}
}

// Notify sends one email covering every alert. Missing configuration logs a
// warning and returns nil; provider errors are logged and returned, but the
// caller treats them as non-fatal.
func (n *EmailNotifier) Notify(ctx context.Context, alerts []models.Alert) error {
	if n.client == nil || !n.cfg.complete() {
		n.logger.Warn("email not configured, skipping notification", "alerts", len(alerts))
		return nil
	}

	subject := fmt.Sprintf("Shoe Price Alert: %d product(s) below threshold!", len(alerts))
	htmlBody := renderHTML(alerts)
	textBody := renderText(alerts)

	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.cfg.From),
		Destination: &types.Destination{
			ToAddresses: n.cfg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	})
	if err != nil {
		n.logger.Error("failed to send alert email", "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("alert email sent",
		"message_id", aws.ToString(out.MessageId), "recipients", len(n.cfg.To))
	return nil
}

func renderHTML(alerts []models.Alert) string {
	var b strings.Builder

	b.WriteString(`<html>
<head>
<style>
  body { font-family: Arial, sans-serif; }
  .header { background-color: #f44336; color: white; padding: 20px; }
  .product { border: 1px solid #ddd; margin: 10px 0; padding: 15px; }
  .price { font-size: 24px; font-weight: bold; color: #4CAF50; }
  .savings { color: #ff5722; }
  .button { background-color: #2196F3; color: white; padding: 10px 20px;
            text-decoration: none; display: inline-block; margin: 10px 0; }
</style>
</head>
<body>
`)
	fmt.Fprintf(&b, `<div class="header"><h1>Shoe Price Alert!</h1><p>Found %d product(s) below your threshold</p></div>
<div style="padding: 20px;">
`, len(alerts))

	for i, alert := range alerts {
		savings := alert.Threshold - alert.Price
		fmt.Fprintf(&b, `<div class="product">
  <h2>#%d: %s</h2>
  <p><strong>Listing:</strong> %s</p>
  <p class="price">Price: $%.2f</p>
  <p class="savings">Save: $%.2f (Threshold: $%.2f)</p>
  <a href="%s" class="button">View Product</a>
</div>
`, i+1, html.EscapeString(alert.ProductName), html.EscapeString(alert.ListingName),
			alert.Price, savings, alert.Threshold, html.EscapeString(alert.URL))
	}

	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}

func renderText(alerts []models.Alert) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Shoe Price Alert: %d product(s) below threshold!\n\n", len(alerts))
	for i, alert := range alerts {
		savings := alert.Threshold - alert.Price
		fmt.Fprintf(&b, "Product #%d: %s\nListing: %s\nPrice: $%.2f\nSave: $%.2f (Threshold: $%.2f)\nURL: %s\n\n",
			i+1, alert.ProductName, alert.ListingName, alert.Price, savings, alert.Threshold, alert.URL)
	}
	return b.String()
}
