package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymate/internal/config"
	"moneymate/internal/core"
	"moneymate/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
		check  func(t *testing.T, repo storage.Repository)
	}{
		{
			name:   "json",
			config: Config{Type: JSONBackend, DataDirectory: filepath.Join(dir, "json")},
			check: func(t *testing.T, repo storage.Repository) {
				_, ok := repo.(*storage.JSONFileRepository)
				assert.True(t, ok)
			},
		},
		{
			name:   "sqlite",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "moneymate.db")},
			check: func(t *testing.T, repo storage.Repository) {
				_, ok := repo.(*storage.SQLiteRepository)
				assert.True(t, ok)
			},
		},
		{
			name:   "memory",
			config: Config{Type: MemoryBackend},
			check: func(t *testing.T, repo storage.Repository) {
				_, ok := repo.(*storage.MemoryRepository)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(context.Background(), tt.config)
			require.NoError(t, err)
			defer func() { assert.NoError(t, res.Cleanup()) }()

			tt.check(t, res.Repository)
			assert.Nil(t, res.Publisher)

			ctx := context.Background()
			l := core.NewLedger(decimal.NewFromInt(100))
			require.NoError(t, res.Repository.Save(ctx, "alice", l))
			got, err := res.Repository.Load(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, got.MonthlyAllowance.Equal(decimal.NewFromInt(100)))
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	for _, cfg := range []Config{
		{Type: "postgres"},
		{Type: JSONBackend},
		{Type: SQLiteBackend},
		{Type: MemoryBackend, AMQPURL: "amqp://localhost"},
	} {
		_, err := f.CreateBackend(context.Background(), cfg)
		assert.Error(t, err, "config %+v", cfg)
	}
}

func TestCreateAppenderRequiresCredentials(t *testing.T) {
	_, err := NewFactory(nil).CreateAppender(context.Background(), Config{GoogleSpreadsheetID: "sheet"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg := &config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "/tmp/x.db",
		AMQPURL:         "amqp://localhost",
		AMQPExchange:    "ex",
		AMQPQueue:       "q",
		GoogleSheetName: "Data",
	}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, got.Type)
	assert.Equal(t, "/tmp/x.db", got.SQLiteDBPath)
	assert.Equal(t, "q", got.AMQPQueue)
	assert.Equal(t, "Data", got.GoogleSheetName)

	cfg.DataBackend = "sheets"
	_, err = FromAppConfig(cfg)
	assert.Error(t, err)
}

func TestFromProfile(t *testing.T) {
	p := config.DefaultProfile()
	got, err := FromProfile(p)
	require.NoError(t, err)
	assert.Equal(t, JSONBackend, got.Type)
	assert.Equal(t, p.Store.DataDir, got.DataDirectory)
	assert.Empty(t, got.AMQPURL)

	p.Store.Backend = "bogus"
	_, err = FromProfile(p)
	assert.Error(t, err)
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"json", "sqlite", "memory"}, GetBackendTypeStrings())
	assert.Equal(t, config.Backends, GetBackendTypeStrings())
}
