package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPostgresDBEmptyDSN(t *testing.T) {
	_, err := NewPostgresDB(context.Background(), " ")
	assert.EqualError(t, err, "db: empty DSN")
}
