package mysql

import (
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkopets/asyncdb/internal/db"
)

func TestDSN(t *testing.T) {
	dsn := DSN(db.Params{User: "root", Password: "secret", Database: "items"})

	cfg, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "127.0.0.1:3306", cfg.Addr)
	assert.Equal(t, "items", cfg.DBName)

	assert.Equal(t, "u:p@tcp(h:1)/x", DSN(db.Params{DSN: "u:p@tcp(h:1)/x"}))
}
