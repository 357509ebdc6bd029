package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "", 0), &core.Config{Env: "TEST", Build: "test"})
	l.Enable(false)
	return l
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := newTestLogger(new(bytes.Buffer))
	err := errors.New("boom")
	usr := user.User{ID: 3, Username: "jdoe", Role: user.RoleTeacher}

	args := l.prepare("msg", []interface{}{err, usr, user.User{ID: 4}})
	assert.Equal(t, []interface{}{"msg", err}, args, "users must not be forwarded as report args")
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Error("Internal Server Error", errors.New("db down"), user.User{ID: 7, Username: "boss", Role: user.RoleAdmin})

	out := buf.String()
	assert.Contains(t, out, "Internal Server Error")
	assert.Contains(t, out, "db down")
	assert.Contains(t, out, "user: id=7 role=admin")
	assert.NotContains(t, out, "boss")
}
