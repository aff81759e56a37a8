package batch

import (
	"path/filepath"
	"testing"

	"github.com/kjk/asistentepa/require"
	"github.com/kjk/asistentepa/species"
)

func TestStatus(t *testing.T) {
	for _, st := range []Status{Prepared, Sown, Growing, ReadyForSale, Empty} {
		got, err := ParseStatus(st.String())
		require.NoError(t, err)
		require.Equal(t, st, got)
	}
	got, err := ParseStatus(" listo PARA venta ")
	require.NoError(t, err)
	require.Equal(t, ReadyForSale, got)

	_, err = ParseStatus("Cosechado")
	require.Error(t, err)
	require.Equal(t, "Status(9)", Status(9).String())
}

func TestCheckSpecies(t *testing.T) {
	s := &species.Store{DataDir: filepath.Join(t.TempDir(), "localDB")}
	require.NoError(t, species.OpenStore(s))
	require.NoError(t, s.Insert(&species.Species{ScientificName: "Sedum_morganianum", CycleDays: 90}))

	b := &Batch{ID: "L-001", Species: "sedum_morganianum", Capacity: 200, Status: Sown}
	sp, err := b.CheckSpecies(s)
	require.NoError(t, err)
	require.Equal(t, 90, sp.CycleDays)

	b.Species = "Monstera"
	_, err = b.CheckSpecies(s)
	require.ErrorIs(t, err, species.ErrNotFound)
}
