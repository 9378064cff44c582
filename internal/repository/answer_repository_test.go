package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestAnswerRepository_Upsert(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAnswerRepository(db)

	// Conflict on (attempt_id, question_id) must update the selection in place.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "answer_records" .* ON CONFLICT \("attempt_id","question_id"\) DO UPDATE SET "selected_option_ids"=.*"updated_at"=.* RETURNING "id"`).
		WithArgs(uint(3), uint(7), []byte("[1,2]"), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	err := repo.Upsert(&model.AnswerRecord{
		AttemptID:         3,
		QuestionID:        7,
		SelectedOptionIDs: model.OptionIDList{1, 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepository_UpsertEmptySelection(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAnswerRepository(db)

	// Clearing an answer stores an empty list, not NULL.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "answer_records"`).
		WithArgs(uint(3), uint(7), []byte("[]"), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	err := repo.Upsert(&model.AnswerRecord{AttemptID: 3, QuestionID: 7, SelectedOptionIDs: model.OptionIDList{}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepository_LoadAll(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAnswerRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "answer_records" WHERE attempt_id = \$1 ORDER BY question_id ASC`).
		WithArgs(uint(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "attempt_id", "question_id", "selected_option_ids"}).
			AddRow(1, 3, 7, []byte("[1,2]")).
			AddRow(2, 3, 9, []byte("[]")))

	records, err := repo.LoadAll(3)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, model.OptionIDList{1, 2}, records[0].SelectedOptionIDs)
	assert.Empty(t, records[1].SelectedOptionIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
