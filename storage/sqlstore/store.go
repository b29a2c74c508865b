package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/password"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnavailable wraps database failures.
var ErrUnavailable = errors.New("sql store unavailable")

// Store implements the rule and user stores on one gorm database.
type Store struct {
	db     *gorm.DB
	hasher *password.Hasher
}

var (
	_ goStepUp.RuleStore = (*Store)(nil)
	_ goStepUp.UserStore = (*Store)(nil)
)

// Open bootstraps a SQLite database at dsn and migrates it.
func Open(dsn string, hasher *password.Hasher) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := New(db, hasher)
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB, hasher *password.Hasher) *Store {
	return &Store{db: db, hasher: hasher}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Rule{}, &User{}, &UserAttribute{}); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}
	return nil
}

/*
====================================
RULES
====================================
*/

// ListRules returns the rules passing filter in id order.
func (s *Store) ListRules(ctx context.Context, filter rule.Filter) ([]*rule.AccessRule, error) {
	q := s.db.WithContext(ctx).Model(&Rule{})
	if filter.Status != 0 {
		q = q.Where("status = ?", int(filter.Status))
	}
	if filter.RequiredOnly {
		q = q.Where("is_required = ?", true)
	}
	if filter.EditableOnly {
		q = q.Where("is_editable = ?", true)
	}
	if filter.WithSelector {
		q = q.Where("button_selector <> ''")
	}

	var rows []Rule
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	out := make([]*rule.AccessRule, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toAccessRule())
	}
	return out, nil
}

func (s *Store) GetRule(ctx context.Context, id int64) (*rule.AccessRule, error) {
	var row Rule
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, goStepUp.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return row.toAccessRule(), nil
}

// SaveRule inserts r, or updates it when r.ID is set. The assigned id is
// written back to r.
func (s *Store) SaveRule(ctx context.Context, r *rule.AccessRule) error {
	if r == nil {
		return errors.New("rule is nil")
	}
	if r.Status == 0 {
		r.Status = rule.StatusActive
	}
	m := ruleModel(r)
	q := s.db.WithContext(ctx)
	if m.ID != 0 {
		q = q.Omit("created_at")
	}
	if err := q.Save(m).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	r.ID, r.CreatedAt, r.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Rule{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return goStepUp.ErrRuleNotFound
	}
	return nil
}

func (s *Store) SetRuleStatus(ctx context.Context, ids []int64, status rule.Status) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&Rule{}).Where("id IN ?", ids).Update("status", int(status)).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

/*
====================================
USERS
====================================
*/

// CreateUser stores a new account and returns its id.
func (s *Store) CreateUser(ctx context.Context, login, pw string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", errors.New("login is required")
	}
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return "", err
	}
	u := User{UUID: uuid.NewString(), Login: login, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return u.UUID, nil
}

// UserByLogin returns the id of the account named login.
func (s *Store) UserByLogin(ctx context.Context, login string) (string, error) {
	u, err := s.userBy(ctx, "login = ?", strings.TrimSpace(login))
	if err != nil {
		return "", err
	}
	return u.UUID, nil
}

func (s *Store) Attribute(ctx context.Context, userID, key string) (string, error) {
	var attr UserAttribute
	err := s.db.WithContext(ctx).
		Where("user_uuid = ? AND attr_key = ?", userID, key).
		Limit(1).Find(&attr).Error
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return attr.Value, nil
}

func (s *Store) SetAttribute(ctx context.Context, userID, key, value string) error {
	attr := UserAttribute{UserUUID: userID, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uuid"}, {Name: "attr_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&attr).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) DeleteAttribute(ctx context.Context, userID, key string) error {
	err := s.db.WithContext(ctx).
		Where("user_uuid = ? AND attr_key = ?", userID, key).
		Delete(&UserAttribute{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) FindByAttribute(ctx context.Context, key, value string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&UserAttribute{}).
		Where("attr_key = ? AND value = ?", key, value).
		Order("id").
		Pluck("user_uuid", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (s *Store) CheckPassword(ctx context.Context, userID, pw string) (bool, error) {
	u, err := s.userBy(ctx, "uuid = ?", userID)
	if errors.Is(err, goStepUp.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.verify(ctx, u, pw)
}

func (s *Store) Authenticate(ctx context.Context, login, pw string) (string, error) {
	u, err := s.userBy(ctx, "login = ?", strings.TrimSpace(login))
	if errors.Is(err, goStepUp.ErrUserNotFound) {
		return "", verify.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	ok, err := s.verify(ctx, u, pw)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", verify.ErrInvalidCredentials
	}
	return u.UUID, nil
}

// verify checks pw against u and upgrades a hash made with weaker
// parameters.
func (s *Store) verify(ctx context.Context, u *User, pw string) (bool, error) {
	ok, err := s.hasher.Verify(pw, u.PasswordHash)
	if errors.Is(err, password.ErrTooLong) {
		return false, nil
	}
	if err != nil || !ok {
		return false, err
	}
	if again, _ := s.hasher.NeedsRehash(u.PasswordHash); again {
		if hash, err := s.hasher.Hash(pw); err == nil {
			_ = s.db.WithContext(ctx).Model(u).Update("password_hash", hash).Error
		}
	}
	return true, nil
}

func (s *Store) userBy(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, goStepUp.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &u, nil
}
