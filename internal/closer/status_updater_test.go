package closer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Ares/internal/talos"
)

func TestUpdateStatusesMarksFightsLive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updater := NewStatusUpdater(db, 30*time.Second)
	ctx := context.Background()

	mock.ExpectExec(`SET fight_status = 'live'`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SET fight_status = 'completed'`).
		WillReturnRows(sqlmock.NewRows([]string{"fight_id", "fighter1", "fighter2", "commence_time"}))

	err = updater.updateStatuses(ctx)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusesCompletedRunsHook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updater := NewStatusUpdater(db, 30*time.Second)
	ctx := context.Background()

	var cleared []string
	updater.SetOnCompleted(func(fightID string) {
		cleared = append(cleared, fightID)
	})

	commence := time.Now().Add(-3 * time.Hour)
	completedRows := sqlmock.NewRows([]string{"fight_id", "fighter1", "fighter2", "commence_time"}).
		AddRow("ufc-320-01", "Ilia Topuria", "Max Holloway", commence).
		AddRow("ufc-320-02", "Tom Aspinall", "Ciryl Gane", commence)

	mock.ExpectExec(`SET fight_status = 'live'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SET fight_status = 'completed'`).
		WillReturnRows(completedRows)

	err = updater.updateStatuses(ctx)
	assert.NoError(t, err)

	assert.Equal(t, []string{"ufc-320-01", "ufc-320-02"}, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusesCompletedClosesPages(t *testing.T) {
	var closeCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/close-game-page", r.URL.Path)
		atomic.AddInt32(&closeCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"all_ok": true, "any_ok": true, "results": {}}`))
	}))
	defer server.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updater := NewStatusUpdater(db, 30*time.Second)
	updater.SetTalosClient(talos.NewClient(talos.Config{
		BaseURL: server.URL,
		Enabled: true,
		Books:   []string{"draftkings", "fanduel"},
	}))
	ctx := context.Background()

	commence := time.Now().Add(-3 * time.Hour)
	completedRows := sqlmock.NewRows([]string{"fight_id", "fighter1", "fighter2", "commence_time"}).
		AddRow("ufc-320-01", "Ilia Topuria", "Max Holloway", commence)

	mock.ExpectExec(`SET fight_status = 'live'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SET fight_status = 'completed'`).
		WillReturnRows(completedRows)

	err = updater.updateStatuses(ctx)
	assert.NoError(t, err)

	// One close request per configured book
	assert.Equal(t, int32(2), atomic.LoadInt32(&closeCalls))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusesLiveUpdateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updater := NewStatusUpdater(db, 30*time.Second)
	ctx := context.Background()

	mock.ExpectExec(`SET fight_status = 'live'`).
		WillReturnError(assert.AnError)

	err = updater.updateStatuses(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update to live")

	assert.NoError(t, mock.ExpectationsWereMet())
}
