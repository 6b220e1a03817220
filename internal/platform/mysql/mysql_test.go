package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agentboard/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.MySQLConfig{
		Host:     "db",
		Port:     3307,
		User:     "app",
		Password: "pw",
		DB:       "chat",
		Params:   "parseTime=true",
	}
	assert.Equal(t, "app:pw@tcp(db:3307)/chat?parseTime=true", DSN(cfg))
}
