package mailer

import "strings"

// Message is a fully assembled plain-text email, ready for delivery.
type Message struct {
	From    string
	Subject string
	To      []string
	CC      []string
	BCC     []string
	Body    string
}

// SplitAddressList splits a comma-separated address list into individual
// addresses, trimming whitespace and dropping empty tokens. Order is
// preserved.
func SplitAddressList(list string) []string {
	var addrs []string
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			addrs = append(addrs, tok)
		}
	}
	return addrs
}

// Recipients returns every To, Cc and Bcc address, in that order, with
// blank entries dropped. Duplicates are kept.
func (m *Message) Recipients() []string {
	var all []string
	for _, list := range [][]string{m.To, m.CC, m.BCC} {
		for _, addr := range list {
			if strings.TrimSpace(addr) != "" {
				all = append(all, addr)
			}
		}
	}
	return all
}

// String serializes the message as header lines followed by the body.
// Each recipient gets its own To/Cc/Bcc header line.
func (m *Message) String() string {
	var b strings.Builder
	header := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("From", m.From)
	if m.Subject != "" {
		header("Subject", m.Subject)
	}
	for _, addr := range m.To {
		header("To", addr)
	}
	for _, addr := range m.CC {
		header("Cc", addr)
	}
	for _, addr := range m.BCC {
		header("Bcc", addr)
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return b.String()
}
