package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator(t)

	tests := []struct {
		name    string
		nu      NewUser
		wantTag string // empty: valid
	}{
		{name: "valid", nu: NewUser{Username: "jdoe", Password: "Str0ng!Pwd#2024", Role: RoleTeacher, FullName: "John Doe"}},
		{name: "short username", nu: NewUser{Username: "jd", Password: "Str0ng!Pwd#2024", Role: RoleTeacher, FullName: "John Doe"}, wantTag: "min"},
		{name: "bad username chars", nu: NewUser{Username: "j/doe", Password: "Str0ng!Pwd#2024", Role: RoleTeacher, FullName: "John Doe"}, wantTag: usernameTag},
		{name: "unknown role", nu: NewUser{Username: "jdoe", Password: "Str0ng!Pwd#2024", Role: "janitor", FullName: "John Doe"}, wantTag: "oneof"},
		{name: "short password", nu: NewUser{Username: "jdoe", Password: "S0!a", Role: RoleTeacher, FullName: "John Doe"}, wantTag: pwdMinLenTag},
		{name: "password with space", nu: NewUser{Username: "jdoe", Password: "Str0ng! Pwd#2024", Role: RoleTeacher, FullName: "John Doe"}, wantTag: pwdNoSpaceTag},
		{name: "numeric password", nu: NewUser{Username: "jdoe", Password: "1234567890", Role: RoleTeacher, FullName: "John Doe"}, wantTag: pwdNotAllNumTag},
		{name: "simple password", nu: NewUser{Username: "jdoe", Password: "strongpassword", Role: RoleTeacher, FullName: "John Doe"}, wantTag: pwdComplexityTag},
		{name: "password like username", nu: NewUser{Username: "zanzibar", Password: "Zanzibar1!", Role: RoleTeacher, FullName: "John Doe"}, wantTag: pwdAttrSimTag},
		{name: "password like full name", nu: NewUser{Username: "jdoe", Password: "Kilimanjaro1!", Role: RoleTeacher, FullName: "Kili Manjaro"}, wantTag: pwdAttrSimTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestNewUser_Validate_cleans(t *testing.T) {
	validate := newValidator(t)
	nu := NewUser{Username: "  JDoe ", Password: "Str0ng!Pwd#2024", Role: " Teacher", FullName: " John Doe "}

	require.NoError(t, nu.Validate(validate))
	assert.Equal(t, "jdoe", nu.Username)
	assert.Equal(t, RoleTeacher, nu.Role)
	assert.Equal(t, "John Doe", nu.FullName)
}
