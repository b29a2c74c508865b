package verify

import (
	"context"

	"github.com/MrEthical07/goStepUp/phone"
)

// PhoneBook manages the numbers stored on users. A confirmed number belongs
// to at most one user.
type PhoneBook struct {
	users Users
	// OnConfirmed runs after a number is confirmed for a user.
	OnConfirmed func(ctx context.Context, userID, number string) error
}

func NewPhoneBook(users Users) *PhoneBook {
	return &PhoneBook{users: users}
}

// Number returns the number the user entered, confirmed or not.
func (b *PhoneBook) Number(ctx context.Context, userID string) (string, error) {
	return b.users.Attribute(ctx, userID, AttrTel)
}

// SetNumber stores the normalized number, deleting it when nothing is left.
func (b *PhoneBook) SetNumber(ctx context.Context, userID, raw string) error {
	number := phone.Normalize(raw)
	if number == "" {
		return b.users.DeleteAttribute(ctx, userID, AttrTel)
	}
	return b.users.SetAttribute(ctx, userID, AttrTel, number)
}

// Confirmed returns the number the user proved ownership of.
func (b *PhoneBook) Confirmed(ctx context.Context, userID string) (string, error) {
	return b.users.Attribute(ctx, userID, AttrConfirmedTel)
}

// Confirm marks number as confirmed for userID, dropping the confirmation of
// any other user holding it.
func (b *PhoneBook) Confirm(ctx context.Context, userID, number string) error {
	owners, err := b.users.FindByAttribute(ctx, AttrConfirmedTel, number)
	if err != nil {
		return err
	}
	for _, other := range owners {
		if other == userID {
			continue
		}
		if err := b.users.DeleteAttribute(ctx, other, AttrConfirmedTel); err != nil {
			return err
		}
	}
	if err := b.users.SetAttribute(ctx, userID, AttrConfirmedTel, number); err != nil {
		return err
	}
	if b.OnConfirmed != nil {
		return b.OnConfirmed(ctx, userID, number)
	}
	return nil
}

// Owner returns the user whose entered number is number, or "".
func (b *PhoneBook) Owner(ctx context.Context, number string) (string, error) {
	users, err := b.users.FindByAttribute(ctx, AttrTel, number)
	if err != nil || len(users) == 0 {
		return "", err
	}
	return users[0], nil
}
