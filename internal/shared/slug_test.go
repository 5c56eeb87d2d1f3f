package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugifyFoldsDiacritics(t *testing.T) {
	require.Equal(t, "bariloche-rio-azul", Slugify("Bariloche Río Azul"))
	require.Equal(t, "cabana-nino", Slugify("Cabaña Niño"))
}

func TestSlugifyCollapsesSeparators(t *testing.T) {
	require.Equal(t, "el-bolson", Slugify("  El   Bolsón!! "))
	require.Equal(t, "", Slugify("---"))
}

func TestSlugifyKeepsDigits(t *testing.T) {
	require.Equal(t, "ruta-40-lodge", Slugify("Ruta 40 Lodge"))
}
