package pg

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/migrations"
)

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := ParseMigrations(migrations.PostgresFS, migrations.PostgresDir)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "users", migs[0].Name)
	require.True(t, strings.Contains(migs[1].SQL, "otp_entry"))
}

func TestParseMigrations_OrderAndFilter(t *testing.T) {
	files := fstest.MapFS{
		"m/0010_b.sql": {Data: []byte("B")},
		"m/0002_a.sql": {Data: []byte("A")},
		"m/README.md":  {Data: []byte("x")},
		"m/junk.sql":   {Data: []byte("x")},
	}
	migs, err := ParseMigrations(files, "m")
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, []int{2, 10}, []int{migs[0].Version, migs[1].Version})
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("A")},
		"m/001_b.sql":  {Data: []byte("B")},
	}
	_, err := ParseMigrations(files, "m")
	require.Error(t, err)
}
