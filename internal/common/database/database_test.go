package database

import (
	"context"
	"testing"

	"cpn-workers/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_DefaultPoolSize(t *testing.T) {
	client := NewRedis(config.RedisConfig{Address: "localhost:0"})
	defer client.Close()

	assert.Equal(t, 10, client.Client.Options().PoolSize)
}

func TestNewPostgres_AppliesPoolLimits(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "cpn", User: "cpn", SSLMode: "disable",
		MaxConnections: 7, MaxIdle: 3,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 7, client.DB.Stats().MaxOpenConnections)
}

func TestNewElasticsearch(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)
}

func TestPostgresClient_PingOrCloseClosesOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectClose()

	err = (&PostgresClient{DB: db}).pingOrClose(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_PingOrCloseKeepsHealthyPool(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	require.NoError(t, (&PostgresClient{DB: db}).pingOrClose(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
