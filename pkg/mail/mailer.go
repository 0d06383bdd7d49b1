package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDisabled signals that email delivery is disabled via configuration.
var ErrDisabled = errors.New("mail: delivery disabled")

// Address is a recipient or sender with an optional display name.
type Address struct {
	Email string
	Name  string
}

// String renders the address in RFC 5322 form.
func (a Address) String() string {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", sanitizeName(name), a.Email)
}

// Message represents an outbound email. Both an HTML and a plain-text body
// are carried so the transport can send a multipart/alternative message.
type Message struct {
	From     Address
	To       []Address
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer defines behaviour for sending email messages. One Send call covers
// all recipients of the message; transports report success or failure for
// the call as a whole, never per recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func uniqueAddresses(addresses []Address) []Address {
	seen := make(map[string]struct{}, len(addresses))
	var result []Address
	for _, addr := range addresses {
		email := strings.TrimSpace(addr.Email)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		addr.Email = email
		result = append(result, addr)
	}
	return result
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	return strings.ReplaceAll(name, `"`, "")
}
