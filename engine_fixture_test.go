package goStepUp

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type memRules struct {
	mu    sync.Mutex
	rules map[int64]*rule.AccessRule
	err   error
}

func newMemRules(rules ...*rule.AccessRule) *memRules {
	m := &memRules{rules: map[int64]*rule.AccessRule{}}
	for _, r := range rules {
		m.rules[r.ID] = r
	}
	return m
}

func (m *memRules) ListRules(_ context.Context, filter rule.Filter) ([]*rule.AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*rule.AccessRule
	for _, r := range m.rules {
		if filter.Matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRules) GetRule(_ context.Context, id int64) (*rule.AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRules) SetRuleStatus(_ context.Context, ids []int64, status rule.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if r, ok := m.rules[id]; ok {
			r.Status = status
		}
	}
	return nil
}

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

func (m *memUsers) addUser(id, login, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[login] = id
	m.passwords[id] = password
}

func (m *memUsers) get(userID, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs[userID][key]
}

func (m *memUsers) Attribute(_ context.Context, userID, key string) (string, error) {
	return m.get(userID, key), nil
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
	if ok, _ := m.CheckPassword(ctx, id, password); !ok {
		return "", verify.ErrInvalidCredentials
	}
	return id, nil
}

type sentSMS struct {
	number, message string
}

type memGateway struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (g *memGateway) Send(_ context.Context, number, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentSMS{number: number, message: message})
	return nil
}

// lastCode returns the code of the latest message, which starts with it.
func (g *memGateway) lastCode(t *testing.T) string {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		t.Fatal("no sms sent")
	}
	code, _, _ := strings.Cut(g.sent[len(g.sent)-1].message, " ")
	return code
}

func (g *memGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

type memNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *memNotifier) Notify(_ context.Context, subject, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, subject+": "+message)
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	engine   *Engine
	rules    *memRules
	users    *memUsers
	gateway  *memGateway
	notifier *memNotifier
	clock    *testClock
	redis    *miniredis.Miniredis
	logs     *logtest.Hook
}

type envOption func(*Builder)

func newTestEnv(t testing.TB, cfg Config, rules []*rule.AccessRule, opts ...envOption) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		rules:    newMemRules(rules...),
		users:    newMemUsers(),
		gateway:  &memGateway{},
		notifier: &memNotifier{},
		clock:    &testClock{t: time.Unix(1700000000, 0)},
		redis:    mr,
		logs:     hook,
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithRuleStore(env.rules).
		WithUserStore(env.users).
		WithGateway(env.gateway).
		WithNotifier(env.notifier).
		WithLogger(log).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.engine = engine

	t.Cleanup(func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	})
	return env
}

// smsUser stores a user with a confirmed number and SMS switched on.
func (env *testEnv) smsUser(t *testing.T, id, number string) Principal {
	t.Helper()
	ctx := context.Background()
	for key, value := range map[string]string{
		verify.AttrTel:            number,
		verify.AttrConfirmedTel:   number,
		verify.EnabledAttr("sms"): "1",
	} {
		if err := env.users.SetAttribute(ctx, id, key, value); err != nil {
			t.Fatalf("SetAttribute failed: %v", err)
		}
	}
	return Principal{UserID: id, Authenticated: true}
}

func checkoutRule() *rule.AccessRule {
	r := &rule.AccessRule{
		ID:         7,
		Status:     rule.StatusActive,
		Title:      "Checkout",
		Method:     rule.MethodPost,
		URL:        "/checkout",
		IsRequired: true,
	}
	r.SetHandler("sms", true)
	return r
}

func profileRule() *rule.AccessRule {
	r := &rule.AccessRule{
		ID:             3,
		Status:         rule.StatusActive,
		Title:          "View profile",
		Method:         rule.MethodGet,
		URL:            "/profile",
		ButtonSelector: "#profile",
		IsEditable:     true,
	}
	r.SetHandler("sms", true)
	r.SetHandler("pwd", true)
	return r
}

func postRequest(uri, sessionID string, form url.Values) Request {
	if form == nil {
		form = url.Values{}
	}
	return Request{Method: "POST", URI: uri, Form: form, SessionID: sessionID, ClientIP: "203.0.113.9", AJAX: true}
}

func getRequest(uri, sessionID string) Request {
	return Request{Method: "GET", URI: uri, SessionID: sessionID, ClientIP: "203.0.113.9"}
}

func requireNoErr(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s failed: %v", what, err)
	}
}
