package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		target  []string
		want    string
		wantErr bool
	}{
		{target: []string{"database-url"}, want: "database-url"},
		{target: []string{"imap", "work"}, want: "imap-password-work"},
		{target: []string{"redis", "redis-0"}, want: "redis-password-redis-0"},
		{target: []string{"imap"}, wantErr: true},
		{target: []string{"jira", "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.target, " "), func(t *testing.T) {
			got, err := keyFor(tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadValue(t *testing.T) {
	v, err := readValue(strings.NewReader("hunter2\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	v, err = readValue(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", v)

	_, err = readValue(strings.NewReader("\n"))
	assert.Error(t, err)
}

func TestRunRejectsBadArguments(t *testing.T) {
	assert.Error(t, run(nil, true, strings.NewReader("")))
	assert.Error(t, run([]string{"rotate", "database-url"}, true, strings.NewReader("x\n")))
	assert.Error(t, run([]string{"set", "imap"}, true, strings.NewReader("x\n")))
}
