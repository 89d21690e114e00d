package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseNotificationType(t *testing.T) {
	tests := map[string]NotificationType{
		"task":      NotificationTask,
		" Meeting ": NotificationMeeting,
		"REMINDER":  NotificationReminder,
		"system":    NotificationSystem,
		"other":     NotificationOther,
		"webinar":   NotificationOther,
		"":          NotificationOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseNotificationType(in), "input %q", in)
	}
}

func TestDisplayName(t *testing.T) {
	var nilUser *User
	assert.Equal(t, "User", nilUser.DisplayName())
	assert.Equal(t, "User", (&User{Name: "   "}).DisplayName())
	assert.Equal(t, "Ada", (&User{Name: "Ada"}).DisplayName())
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", (&User{Name: "ada lovelace king"}).Initials())
	assert.Equal(t, "É", (&User{Name: "élodie"}).Initials())
	assert.Equal(t, "U", (*User)(nil).Initials())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	u := &User{Password: hash}
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("S3cret"))
	assert.False(t, (&User{}).CheckPassword("s3cret"))

	_, err = HashPassword("", bcrypt.MinCost)
	assert.Error(t, err)
}
