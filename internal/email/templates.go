// Package email provides notification templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// PaymentInfo feeds the payment decision templates.
type PaymentInfo struct {
	CustomerName    string
	CustomerEmail   string
	OrderNumber     string
	Amount          string
	TransactionID   string
	RejectionReason string
}

// OrderInfo feeds the order lifecycle templates.
type OrderInfo struct {
	CustomerName  string
	CustomerEmail string
	OrderNumber   string
}

// ReturnInfo feeds the return update template.
type ReturnInfo struct {
	CustomerName  string
	CustomerEmail string
	OrderNumber   string
	Status        string
	Reason        string
}

type emailTemplate struct {
	Subject string
	Text    string
}

var templates = map[string]emailTemplate{
	"payment_verified": {
		Subject: "Payment received - order {{.OrderNumber}}",
		Text: `Hi {{.CustomerName}},

We have verified your payment of {{.Amount}} (UPI ref {{.TransactionID}}) for order {{.OrderNumber}}. Your order is confirmed and will be processed shortly.

Thank you for shopping with us.`,
	},
	"payment_rejected": {
		Subject: "Payment could not be verified - order {{.OrderNumber}}",
		Text: `Hi {{.CustomerName}},

We could not verify the payment you submitted for order {{.OrderNumber}} (UPI ref {{.TransactionID}}).

Reason: {{.RejectionReason}}

If you believe this is a mistake, please reply to this email with your payment details and we will take another look.`,
	},
	"order_shipped": {
		Subject: "Order {{.OrderNumber}} has shipped",
		Text: `Hi {{.CustomerName}},

Good news: your order {{.OrderNumber}} is on its way.

Thank you for shopping with us.`,
	},
	"return_update": {
		Subject: "Update on your return for order {{.OrderNumber}}",
		Text: `Hi {{.CustomerName}},

Your return for order {{.OrderNumber}} is now: {{.Status}}.
{{- if .Reason}}

Note: {{.Reason}}
{{- end}}

Reply to this email if you have any questions.`,
	},
}

var parsedTemplates = template.Must(func() (*template.Template, error) {
	root := template.New("email")
	for name, t := range templates {
		if _, err := root.New(name + "_subject").Parse(t.Subject); err != nil {
			return nil, err
		}
		if _, err := root.New(name + "_text").Parse(t.Text); err != nil {
			return nil, err
		}
	}
	return root, nil
}())

func render(name string, data any) (subject, text string, err error) {
	var sb, tb bytes.Buffer
	if err := parsedTemplates.ExecuteTemplate(&sb, name+"_subject", data); err != nil {
		return "", "", fmt.Errorf("failed to render subject %s: %w", name, err)
	}
	if err := parsedTemplates.ExecuteTemplate(&tb, name+"_text", data); err != nil {
		return "", "", fmt.Errorf("failed to render body %s: %w", name, err)
	}
	return sb.String(), tb.String(), nil
}

// SendPaymentVerified notifies the customer that their payment was accepted.
func SendPaymentVerified(ctx context.Context, provider Provider, info PaymentInfo) error {
	subject, text, err := render("payment_verified", info)
	if err != nil {
		return err
	}
	return provider.SendEmail(ctx, &Email{To: info.CustomerEmail, Subject: subject, Text: text})
}

// SendPaymentRejected notifies the customer that their payment proof was
// rejected, including the admin's reason.
func SendPaymentRejected(ctx context.Context, provider Provider, info PaymentInfo) error {
	subject, text, err := render("payment_rejected", info)
	if err != nil {
		return err
	}
	return provider.SendEmail(ctx, &Email{To: info.CustomerEmail, Subject: subject, Text: text})
}

// SendOrderShipped notifies the customer that their order left the warehouse.
func SendOrderShipped(ctx context.Context, provider Provider, info OrderInfo) error {
	subject, text, err := render("order_shipped", info)
	if err != nil {
		return err
	}
	return provider.SendEmail(ctx, &Email{To: info.CustomerEmail, Subject: subject, Text: text})
}

// SendReturnUpdate notifies the customer of a return status change.
func SendReturnUpdate(ctx context.Context, provider Provider, info ReturnInfo) error {
	subject, text, err := render("return_update", info)
	if err != nil {
		return err
	}
	return provider.SendEmail(ctx, &Email{To: info.CustomerEmail, Subject: subject, Text: text})
}
