package verify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/goStepUp/internal/throttle"
	"github.com/MrEthical07/goStepUp/otp"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memUsers struct {
	mu        sync.Mutex
	attrs     map[string]map[string]string
	passwords map[string]string
	logins    map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{
		attrs:     map[string]map[string]string{},
		passwords: map[string]string{},
		logins:    map[string]string{},
	}
}

func (m *memUsers) Attribute(_ context.Context, userID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs[userID][key], nil
}

func (m *memUsers) SetAttribute(_ context.Context, userID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attrs[userID] == nil {
		m.attrs[userID] = map[string]string{}
	}
	m.attrs[userID][key] = value
	return nil
}

func (m *memUsers) DeleteAttribute(_ context.Context, userID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attrs[userID], key)
	return nil
}

func (m *memUsers) FindByAttribute(_ context.Context, key, value string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, attrs := range m.attrs {
		if attrs[key] == value {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memUsers) CheckPassword(_ context.Context, userID, password string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passwords[userID] != "" && m.passwords[userID] == password, nil
}

func (m *memUsers) Authenticate(ctx context.Context, login, password string) (string, error) {
	m.mu.Lock()
	id := m.logins[login]
	m.mu.Unlock()
	ok, _ := m.CheckPassword(ctx, id, password)
	if !ok {
		return "", ErrInvalidCredentials
	}
	return id, nil
}

type sentMessage struct {
	number, message string
}

type fakeGateway struct {
	sent []sentMessage
	err  error
}

func (g *fakeGateway) Send(_ context.Context, number, message string) error {
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentMessage{number: number, message: message})
	return nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type smsFixture struct {
	users   *memUsers
	gateway *fakeGateway
	ledger  *throttle.Ledger
	clock   *clock
	sms     *SMS
	ctx     context.Context
}

func newSMSFixture(t interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}) *smsFixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	f := &smsFixture{
		users:   newMemUsers(),
		gateway: &fakeGateway{},
		clock:   &clock{t: time.Unix(1700000000, 0)},
		ctx:     session.WithID(context.Background(), "sid-1"),
	}
	f.ledger = throttle.New(rdb, throttle.DefaultConfig(), f.clock.Now)
	codes := otp.NewCodes(session.NewRedisStore(rdb, "test:", time.Hour), otp.CodesConfig{}, f.clock.Now)
	f.sms = NewSMS(f.users, NewPhoneBook(f.users), codes, f.gateway, f.ledger, SMSConfig{})
	return f
}

// lastCode extracts the code from the most recent message.
func (f *smsFixture) lastCode() string {
	if len(f.gateway.sent) == 0 {
		return ""
	}
	msg := f.gateway.sent[len(f.gateway.sent)-1].message
	return msg[:6]
}
