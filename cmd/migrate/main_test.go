package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationID(t *testing.T) {
	assert.Equal(t, "20250801000000_create_payments_schema",
		migrationID("20250801000000_create_payments_schema.sql"))
	assert.Equal(t, "plain", migrationID("plain"))
}

func TestPendingFiles(t *testing.T) {
	files := []string{
		filepath.Join("migrations", "20250801000100_create_fraud_scores.sql"),
		filepath.Join("migrations", "20250801000000_create_payments_schema.sql"),
		filepath.Join("migrations", "20250901000000_add_indexes.sql"),
	}

	t.Run("filters applied and sorts chronologically", func(t *testing.T) {
		applied := map[string]bool{"20250801000000_create_payments_schema": true}

		pending := pendingFiles(files, applied)
		assert.Equal(t, []string{
			filepath.Join("migrations", "20250801000100_create_fraud_scores.sql"),
			filepath.Join("migrations", "20250901000000_add_indexes.sql"),
		}, pending)
	})

	t.Run("nothing applied", func(t *testing.T) {
		pending := pendingFiles(files, nil)
		assert.Len(t, pending, 3)
		assert.Equal(t, filepath.Join("migrations", "20250801000000_create_payments_schema.sql"), pending[0])
	})

	t.Run("everything applied", func(t *testing.T) {
		applied := map[string]bool{
			"20250801000000_create_payments_schema": true,
			"20250801000100_create_fraud_scores":    true,
			"20250901000000_add_indexes":            true,
		}
		assert.Empty(t, pendingFiles(files, applied))
	})
}
