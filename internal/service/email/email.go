package email

import (
	"fmt"

	"github.com/wneessen/go-mail"
	"uk.co.dudmesh.gatehouse/internal/boot"
)

type service struct {
	client *mail.Client
	from   string
}

func New(config *boot.Config) (*service, error) {
	opts := []mail.Option{
		mail.WithPort(config.SMTP.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if config.SMTP.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.SMTP.Username),
			mail.WithPassword(config.SMTP.Password))
	}

	client, err := mail.NewClient(config.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &service{client: client, from: config.SMTP.From}, nil
}

// SendAccountActivation mails the activation token to a freshly registered
// address. Callers treat any failure here uniformly, the transport detail
// never reaches the client.
func (s *service) SendAccountActivation(address string, token string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(address); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject("Account Activation")
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(`Token is %s`, token))

	if err := s.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending activation email: %w", err)
	}
	return nil
}
