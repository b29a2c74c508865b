package verify

import "context"

// None confirms every action without a challenge.
type None struct{}

func (None) ID() string       { return "non" }
func (None) Name() string     { return "No Verification" }
func (None) Position() int    { return 0 }
func (None) Switchable() bool { return false }
func (None) Optional() bool   { return false }

func (None) Configured(context.Context, string) (bool, error) { return true, nil }

func (None) Verify(context.Context, string, Input) error { return nil }

func (None) Prompt(context.Context, string, map[string]string) (*Prompt, error) {
	return &Prompt{Handler: "non", Skip: true}, nil
}

// Password asks the user to re-enter their password.
type Password struct {
	users Users
	tpl   Templates
}

func NewPassword(users Users, tpl Templates) *Password {
	return &Password{users: users, tpl: tpl}
}

func (*Password) ID() string       { return "pwd" }
func (*Password) Name() string     { return "Password" }
func (*Password) Position() int    { return 0 }
func (*Password) Switchable() bool { return false }
func (*Password) Optional() bool   { return false }

func (*Password) Configured(context.Context, string) (bool, error) { return true, nil }

func (p *Password) Verify(ctx context.Context, userID string, in Input) error {
	pw := in.Get("password")
	if pw == "" {
		return Fail(ErrInvalidCredentials, "Invalid password")
	}
	ok, err := p.users.CheckPassword(ctx, userID, pw)
	if err != nil {
		return err
	}
	if !ok {
		return Fail(ErrInvalidCredentials, "Invalid password")
	}
	return nil
}

func (p *Password) Prompt(_ context.Context, _ string, data map[string]string) (*Prompt, error) {
	return p.tpl.render(p.ID(), TplPasswordVerify, copyData(data)), nil
}
