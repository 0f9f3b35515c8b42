package database

import (
	"testing"

	"stride/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConnectTest_AppliesSchema(t *testing.T) {
	db, err := ConnectTest()
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestConnectTest_IsolatedDatabases(t *testing.T) {
	db1, err := ConnectTest()
	require.NoError(t, err)
	db2, err := ConnectTest()
	require.NoError(t, err)

	require.NoError(t, db1.Create(&models.User{
		Username: "runner", Email: "runner@example.com", Password: "x", Role: models.RoleUser,
	}).Error)

	var count int64
	require.NoError(t, db2.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

// Error propagation from the driver through GORM, without a live server.
func TestQueryErrorPropagates(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnError(assert.AnError)

	var count int64
	err = db.Model(&models.User{}).Count(&count).Error
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
