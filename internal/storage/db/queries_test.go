package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueries_Rebind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		driver Driver
		query  string
		want   string
	}{
		{
			name:   "sqlite unchanged",
			driver: DriverSQLite,
			query:  "SELECT * FROM users WHERE id = ? AND login_name = ?",
			want:   "SELECT * FROM users WHERE id = ? AND login_name = ?",
		},
		{
			name:   "postgres numbered",
			driver: DriverPostgres,
			query:  "SELECT * FROM users WHERE id = ? AND login_name = ?",
			want:   "SELECT * FROM users WHERE id = $1 AND login_name = $2",
		},
		{
			name:   "postgres no placeholders",
			driver: DriverPostgres,
			query:  "DELETE FROM sessions",
			want:   "DELETE FROM sessions",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			q := New(nil, test.driver)
			assert.Equal(t, test.want, q.rebind(test.query))
		})
	}
}
