package datasourcesvc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

func TestCreateRequiresName(t *testing.T) {
	tdb := store.NewTestDB(t)
	s := New(tdb.DB)

	_, err := s.Create(model.FileDataSource{FolderPath: "/data"})
	require.Error(t, err)
}

func TestDisableSetsNeedsRefresh(t *testing.T) {
	tdb := store.NewTestDB(t)
	s := New(tdb.DB)

	_, err := s.Create(model.FileDataSource{Name: "incoming", FolderPath: "/data", IsEnabled: true})
	require.NoError(t, err)

	require.NoError(t, s.Disable("incoming"))

	got, found, err := s.Get("incoming")
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, got.IsEnabled)
	require.True(t, got.NeedsRefresh, "Disable must request a watcher restart so the supervisor stops it promptly")
}

func TestEnableSetsNeedsRefresh(t *testing.T) {
	tdb := store.NewTestDB(t)
	s := New(tdb.DB)

	_, err := s.Create(model.FileDataSource{Name: "incoming", FolderPath: "/data", IsEnabled: false})
	require.NoError(t, err)

	require.NoError(t, s.Enable("incoming"))

	got, _, err := s.Get("incoming")
	require.NoError(t, err)
	require.True(t, got.IsEnabled)
	require.True(t, got.NeedsRefresh)
}

func TestListAllOrderedByName(t *testing.T) {
	tdb := store.NewTestDB(t)
	s := New(tdb.DB)

	_, err := s.Create(model.FileDataSource{Name: "zeta", FolderPath: "/z"})
	require.NoError(t, err)
	_, err = s.Create(model.FileDataSource{Name: "alpha", FolderPath: "/a"})
	require.NoError(t, err)

	rows, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "alpha", rows[0].Name)
	require.Equal(t, "zeta", rows[1].Name)
}
