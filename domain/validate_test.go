package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr bool
	}{
		{name: "login ok", req: LoginRequest{Email: "a@b.c", Password: "pw"}},
		{name: "login missing password", req: LoginRequest{Email: "a@b.c"}, wantErr: true},
		{name: "send ok", req: SendMessageRequest{To: "u1", Message: "hi"}},
		{name: "send blank message", req: SendMessageRequest{To: "u1", Message: "   "}, wantErr: true},
		{name: "send missing recipient", req: SendMessageRequest{Message: "hi"}, wantErr: true},
		{name: "assign name needs id", req: User{UserName: "Alice"}, wantErr: true},
		{name: "assign name may clear name", req: User{UserID: "1"}},
		{name: "signup short password", req: SignupRequest{FullName: "Dr A", Email: "a@b.c", Password: "123"}, wantErr: true},
		{name: "delete ok", req: DeleteUserRequest{UserID: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCareTeamMember_Name(t *testing.T) {
	assert.Equal(t, "Dr. A", CareTeamMember{DisplayName: "Dr. A", FullName: "Alice"}.Name())
	assert.Equal(t, "Alice", CareTeamMember{FullName: "Alice"}.Name())
	assert.Equal(t, "a@b.c", CareTeamMember{Email: "a@b.c"}.Name())
}
