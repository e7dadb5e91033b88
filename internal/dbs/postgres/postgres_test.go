package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "with password and sslmode",
			cfg:  Config{Addr: "db", Port: 5432, User: "kb", Password: "p@ss", DB: "kbdedup", SSLMode: "disable"},
			want: "postgres://kb:p%40ss@db:5432/kbdedup?sslmode=disable",
		},
		{
			name: "without password",
			cfg:  Config{Addr: "localhost", Port: 6543, User: "kb", DB: "kbdedup"},
			want: "postgres://kb@localhost:6543/kbdedup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dsn, err := DSN(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dsn)
		})
	}
}

func TestDSN_MissingFields(t *testing.T) {
	t.Parallel()

	_, err := DSN(Config{Addr: "db", Port: 5432})
	assert.Error(t, err)
}
