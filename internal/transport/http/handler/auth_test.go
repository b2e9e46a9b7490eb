package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/enthub-api/internal/application/auth"
	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) IssueCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyCode(ctx context.Context, email, code string) (*auth.VerifyResult, error) {
	args := m.Called(ctx, email, code)
	res, _ := args.Get(0).(*auth.VerifyResult)
	return res, args.Error(1)
}

func TestIssueCode_OK(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("IssueCode", mock.Anything, "a@b.co").Return(nil)
	h := NewAuthHandler(svc, nil)

	rr := httptest.NewRecorder()
	h.IssueCode(rr, newReq(http.MethodPost, "/v1/auth/issue-code", []byte(`{"email":"a@b.co"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func TestIssueCode_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthSvc{}, nil)
	rr := httptest.NewRecorder()
	h.IssueCode(rr, newReq(http.MethodPost, "/v1/auth/issue-code", []byte(`not-json`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIssueCode_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("email", "invalid email format"), http.StatusBadRequest},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"store failure", errors.New("dynamo down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAuthSvc{}
			svc.On("IssueCode", mock.Anything, "a@b.co").Return(tc.err)
			h := NewAuthHandler(svc, nil)

			rr := httptest.NewRecorder()
			h.IssueCode(rr, newReq(http.MethodPost, "/v1/auth/issue-code", []byte(`{"email":"a@b.co"}`)))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestVerifyCode_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no request", domain.ErrNoLoginRequest, http.StatusNotFound},
		{"expired", domain.ErrCodeExpired, http.StatusGone},
		{"locked", domain.ErrTooManyAttempts, http.StatusLocked},
		{"wrong code", &domain.InvalidCodeError{Remaining: 2}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAuthSvc{}
			svc.On("VerifyCode", mock.Anything, "a@b.co", "123456").Return(nil, tc.err)
			h := NewAuthHandler(svc, nil)

			rr := httptest.NewRecorder()
			h.VerifyCode(rr, newReq(http.MethodPost, "/v1/auth/verify-code", []byte(`{"email":"a@b.co","code":"123456"}`)))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestVerifyCode_WrongCodeReportsRemaining(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, "a@b.co", "000000").Return(nil, &domain.InvalidCodeError{Remaining: 3})
	h := NewAuthHandler(svc, nil)

	rr := httptest.NewRecorder()
	h.VerifyCode(rr, newReq(http.MethodPost, "/v1/auth/verify-code", []byte(`{"email":"a@b.co","code":"000000"}`)))

	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.NotNil(t, env.Remaining)
	assert.Equal(t, 3, *env.Remaining)
	assert.Equal(t, "InvalidCodeError", env.ErrorKind)
}

func TestVerifyCode_NewUserGetsToken(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, "a@b.co", "123456").
		Return(&auth.VerifyResult{UserID: "u1", Email: "a@b.co", Created: true}, nil)
	h := NewAuthHandler(svc, p)

	rr := httptest.NewRecorder()
	h.VerifyCode(rr, newReq(http.MethodPost, "/v1/auth/verify-code", []byte(`{"email":"a@b.co","code":"123456"}`)))

	require.Equal(t, http.StatusCreated, rr.Code)
	var out functions.VerifyResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, "u1", out.UserID)
	require.NotEmpty(t, out.Token)

	claims, err := p.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestVerifyCode_ExistingUserWithoutSigner(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, "a@b.co", "123456").
		Return(&auth.VerifyResult{UserID: "u1", Email: "a@b.co"}, nil)
	h := NewAuthHandler(svc, nil)

	rr := httptest.NewRecorder()
	h.VerifyCode(rr, newReq(http.MethodPost, "/v1/auth/verify-code", []byte(`{"email":"a@b.co","code":"123456"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"userId":"u1","email":"a@b.co","created":false}`, rr.Body.String())
}
