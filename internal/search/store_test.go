package search

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nanumsa/server/internal/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(gdb)
	store.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestRecordKeyword_PersistsSearchType(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "nanumsa"\."recent_search_keywords" WHERE user_id = \$1 AND keyword = \$2`).
		WithArgs(int64(9), "정자동").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "nanumsa"\."recent_search_keywords" \("user_id","keyword","type","created_at"\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING "id"`).
		WithArgs(int64(9), "정자동", 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, store.RecordKeyword(9, "정자동", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordKeyword_CollapsesDuplicateAcrossTypes(t *testing.T) {
	store, mock := newMockStore(t)

	// Re-searching the same keyword with a different type still replaces
	// the old row rather than adding a second one.
	mock.ExpectExec(`DELETE FROM "nanumsa"\."recent_search_keywords" WHERE user_id = \$1 AND keyword = \$2`).
		WithArgs(int64(9), "판교역").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "nanumsa"\."recent_search_keywords"`).
		WithArgs(int64(9), "판교역", 0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	require.NoError(t, store.RecordKeyword(9, "판교역", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupByPoint_CollapsesSharedPoints(t *testing.T) {
	infos := []share.ShareInfo{
		{ID: 1, Name: "냉장고 나눔", PointName: "정자역", DoroAddress: "성남대로 1", PointLat: 37.36, PointLng: 127.10},
		{ID: 2, Name: "책장 나눔", PointName: "정자역", DoroAddress: "성남대로 2", PointLat: 37.36, PointLng: 127.10},
		{ID: 3, Name: "의자 나눔", PointName: "판교역", DoroAddress: "판교역로 3", PointLat: 37.39, PointLng: 127.11},
	}

	pins := groupByPoint(infos)
	require.Len(t, pins, 2)

	// Two listings at the same point fold into one pin labeled by the
	// point name, carrying both addresses.
	assert.Equal(t, "정자역", pins[0].Name)
	assert.Equal(t, 2, pins[0].Count)
	assert.Equal(t, []string{"성남대로 1", "성남대로 2"}, pins[0].Addresses)

	// A lone listing keeps its own name.
	assert.Equal(t, "의자 나눔", pins[1].Name)
	assert.Equal(t, 1, pins[1].Count)
}

func TestGroupByPoint_PreservesFirstSeenOrder(t *testing.T) {
	infos := []share.ShareInfo{
		{ID: 1, Name: "a", PointLat: 1, PointLng: 1},
		{ID: 2, Name: "b", PointLat: 2, PointLng: 2},
		{ID: 3, Name: "c", PointName: "p", PointLat: 1, PointLng: 1},
	}

	pins := groupByPoint(infos)
	require.Len(t, pins, 2)
	assert.Equal(t, 2, pins[0].Count)
	assert.Equal(t, 1, pins[1].Count)
}
