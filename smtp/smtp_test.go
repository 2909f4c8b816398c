package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/inkwell-press/mailer"
)

type sendCall struct {
	from string
	to   string
	msg  string
}

// mockClient records the protocol calls made by the gateway.
type mockClient struct {
	loginFunc    func(username, password string) error
	sendMailFunc func(from, to string, msg []byte) error
	quitFunc     func() error

	logins []string
	sends  []sendCall
	quits  int
	closes int
}

func (m *mockClient) Login(username, password string) error {
	m.logins = append(m.logins, username+":"+password)
	if m.loginFunc != nil {
		return m.loginFunc(username, password)
	}
	return nil
}

func (m *mockClient) SendMail(from, to string, msg []byte) error {
	m.sends = append(m.sends, sendCall{from: from, to: to, msg: string(msg)})
	if m.sendMailFunc != nil {
		return m.sendMailFunc(from, to, msg)
	}
	return nil
}

func (m *mockClient) Quit() error {
	m.quits++
	if m.quitFunc != nil {
		return m.quitFunc()
	}
	return nil
}

func (m *mockClient) Close() error {
	m.closes++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSender(cfg Config, client *mockClient) (*Sender, *string) {
	var dialedAddr string
	s := New(cfg,
		WithLogger(discardLogger()),
		WithDialFunc(func(addr string) (Client, error) {
			dialedAddr = addr
			return client, nil
		}),
	)
	return s, &dialedAddr
}

func TestFromMailerConfig(t *testing.T) {
	got := FromMailerConfig(mailer.Config{
		Host:     "mail.example.com",
		Port:     2525,
		Username: "user",
		Password: "secret",
		Debug:    true,
		Delivery: mailer.DeliverySMTP,
	})
	want := Config{
		Host:     "mail.example.com",
		Port:     2525,
		Username: "user",
		Password: "secret",
		Debug:    true,
	}
	if got != want {
		t.Errorf("FromMailerConfig() = %+v, want %+v", got, want)
	}
}

func TestSend_PerRecipientSubmission(t *testing.T) {
	client := &mockClient{}
	s, _ := newTestSender(Config{Host: "mail.example.com", Port: 2525}, client)

	msg := &mailer.Message{
		From: "from@x.com",
		To:   []string{"a@x.com", "b@y.com"},
		CC:   []string{"c@z.com"},
		BCC:  []string{"d@w.com"},
		Body: "hello",
	}

	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	wantOrder := []string{"a@x.com", "b@y.com", "c@z.com", "d@w.com"}
	var gotOrder []string
	for _, call := range client.sends {
		gotOrder = append(gotOrder, call.to)
		if call.from != "from@x.com" {
			t.Errorf("from = %q, want shared %q", call.from, "from@x.com")
		}
		if call.msg != msg.String() {
			t.Errorf("submitted body differs from serialized message")
		}
	}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("recipients = %v, want %v", gotOrder, wantOrder)
	}
	if client.quits != 1 {
		t.Errorf("quits = %d, want 1", client.quits)
	}
	if client.closes != 1 {
		t.Errorf("closes = %d, want 1", client.closes)
	}
}

func TestSend_DuplicateRecipientsKept(t *testing.T) {
	client := &mockClient{}
	s, _ := newTestSender(Config{}, client)

	msg := &mailer.Message{
		From: "from@x.com",
		To:   []string{"a@x.com", "a@x.com"},
		Body: "hello",
	}

	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(client.sends) != 2 {
		t.Errorf("sends = %d, want 2 (duplicates send duplicate copies)", len(client.sends))
	}
}

func TestSend_AuthOnlyWithBothCredentials(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantLogin bool
	}{
		{"both set", "user", "secret", true},
		{"username only", "user", "", false},
		{"password only", "", "secret", false},
		{"neither", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			s, _ := newTestSender(Config{Username: tt.username, Password: tt.password}, client)

			msg := &mailer.Message{From: "from@x.com", To: []string{"a@x.com"}}
			if err := s.Send(context.Background(), msg); err != nil {
				t.Fatalf("Send() error: %v", err)
			}

			gotLogin := len(client.logins) > 0
			if gotLogin != tt.wantLogin {
				t.Errorf("login attempted = %v, want %v", gotLogin, tt.wantLogin)
			}
			if tt.wantLogin && client.logins[0] != "user:secret" {
				t.Errorf("login = %q, want %q", client.logins[0], "user:secret")
			}
		})
	}
}

func TestSend_DefaultHostAndPort(t *testing.T) {
	client := &mockClient{}
	s, dialedAddr := newTestSender(Config{}, client)

	msg := &mailer.Message{From: "from@x.com", To: []string{"a@x.com"}}
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if *dialedAddr != "127.0.0.1:25" {
		t.Errorf("dialed %q, want %q", *dialedAddr, "127.0.0.1:25")
	}
}

func TestSend_AbortsOnFirstRecipientFailure(t *testing.T) {
	cause := errors.New("550 mailbox unavailable")
	client := &mockClient{
		sendMailFunc: func(from, to string, msg []byte) error {
			if to == "b@y.com" {
				return cause
			}
			return nil
		},
	}
	s, _ := newTestSender(Config{}, client)

	msg := &mailer.Message{
		From: "from@x.com",
		To:   []string{"a@x.com", "b@y.com", "c@z.com"},
	}

	err := s.Send(context.Background(), msg)
	var mErr *mailer.Error
	if !errors.As(err, &mErr) || mErr.Reason != mailer.REASON_DELIVERY {
		t.Fatalf("Send() error = %v, want reason %s", err, mailer.REASON_DELIVERY)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Send() error does not wrap the protocol error: %v", err)
	}
	if len(client.sends) != 2 {
		t.Errorf("sends = %d, want 2 (abort after first failure)", len(client.sends))
	}
	if client.quits != 0 {
		t.Errorf("quits = %d, want 0 on aborted session", client.quits)
	}
	if client.closes != 1 {
		t.Errorf("closes = %d, want 1 (connection released)", client.closes)
	}
}

func TestSend_DialFailure(t *testing.T) {
	cause := errors.New("connection refused")
	s := New(Config{},
		WithLogger(discardLogger()),
		WithDialFunc(func(addr string) (Client, error) { return nil, cause }),
	)

	err := s.Send(context.Background(), &mailer.Message{From: "from@x.com", To: []string{"a@x.com"}})
	var mErr *mailer.Error
	if !errors.As(err, &mErr) || mErr.Reason != mailer.REASON_DELIVERY {
		t.Fatalf("Send() error = %v, want reason %s", err, mailer.REASON_DELIVERY)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Send() error does not wrap the dial error: %v", err)
	}
}

func TestSend_AuthFailure(t *testing.T) {
	cause := errors.New("535 authentication failed")
	client := &mockClient{
		loginFunc: func(username, password string) error { return cause },
	}
	s, _ := newTestSender(Config{Username: "user", Password: "bad"}, client)

	err := s.Send(context.Background(), &mailer.Message{From: "from@x.com", To: []string{"a@x.com"}})
	if !errors.Is(err, cause) {
		t.Fatalf("Send() error = %v, want wrapped auth failure", err)
	}
	if len(client.sends) != 0 {
		t.Errorf("sends = %d, want 0 after auth failure", len(client.sends))
	}
}

func TestSend_QuitFailure(t *testing.T) {
	cause := errors.New("421 closing channel")
	client := &mockClient{quitFunc: func() error { return cause }}
	s, _ := newTestSender(Config{}, client)

	err := s.Send(context.Background(), &mailer.Message{From: "from@x.com", To: []string{"a@x.com"}})
	if !errors.Is(err, cause) {
		t.Fatalf("Send() error = %v, want wrapped quit failure", err)
	}
}

func TestSend_FailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client := &mockClient{
		sendMailFunc: func(from, to string, msg []byte) error { return errors.New("boom") },
	}
	s := New(Config{},
		WithLogger(logger),
		WithDialFunc(func(addr string) (Client, error) { return client, nil }),
	)

	if err := s.Send(context.Background(), &mailer.Message{From: "f@x.com", To: []string{"a@x.com"}}); err == nil {
		t.Fatal("Send() should fail")
	}
	if !strings.Contains(buf.String(), "smtp delivery failed") {
		t.Errorf("failure was not logged: %q", buf.String())
	}
}
