package auth

import (
	"context"
	"sync"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
)

type loginResult struct {
	session domain.Session
	err     error
}

// fakeAPI answers immediately unless a gate is queued for the call, in which
// case the call blocks until the test sends its result.
type fakeAPI struct {
	mu         sync.Mutex
	loginGates []chan loginResult
	login      loginResult
	register   []dto.RegisterRequest
	roles      []domain.RegisterRole
	messages   map[string]string
	errs       map[string]error
	calls      []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{messages: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) gateLogin() chan loginResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan loginResult, 1)
	f.loginGates = append(f.loginGates, ch)
	return ch
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) sessionCall(name string) (domain.Session, error) {
	f.mu.Lock()
	var gate chan loginResult
	if len(f.loginGates) > 0 {
		gate = f.loginGates[0]
		f.loginGates = f.loginGates[1:]
	}
	res := f.login
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if gate != nil {
		res = <-gate
	}
	return res.session, res.err
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (domain.Session, error) {
	return f.sessionCall("login")
}

func (f *fakeAPI) AuthenticateMagicLink(_ context.Context, _ string) (domain.Session, error) {
	return f.sessionCall("magic")
}

func (f *fakeAPI) Register(_ context.Context, role domain.RegisterRole, req dto.RegisterRequest) (domain.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register")
	f.roles = append(f.roles, role)
	f.register = append(f.register, req)
	if err := f.errs["register"]; err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: "9", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeAPI) msg(name string) (string, error) {
	f.record(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[name], f.errs[name]
}

func (f *fakeAPI) ForgotPassword(_ context.Context, _, redirect string) (string, error) {
	f.record("redirect:" + redirect)
	return f.msg("forgot")
}

func (f *fakeAPI) ResetPassword(_ context.Context, _, _ string) (string, error) {
	return f.msg("reset")
}

func (f *fakeAPI) RequestMagicLink(_ context.Context, _, redirect string) (string, error) {
	f.record("redirect:" + redirect)
	return f.msg("magic-request")
}

func (f *fakeAPI) RequestEmailConfirmation(_ context.Context, _ string) (string, error) {
	return f.msg("confirm")
}

var (
	ann = domain.Session{Principal: domain.Principal{ID: "1", Name: "Ann", Email: "a@b.com"}, Token: "t1"}
	bob = domain.Session{Principal: domain.Principal{ID: "2", Name: "Bob", Email: "bob@b.com"}, Token: "t2"}
)
