package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crmserver/database"
	"crmserver/matching"
)

func TestExportContactsToExcel(t *testing.T) {
	contacts := []*database.StoredContact{
		{Contact: matching.Contact{ID: 1, Name: "ООО Ромашка", TaxID: "7707083893", Email: "info@romashka.ru"}},
		{Contact: matching.Contact{ID: 2, Name: "Acme Corp", ExternalID: "EXT-7"}},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportContactsToExcel(&buf, contacts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 3) // Заголовок и две строки данных

	assert.Equal(t, "Название", rows[0][1])
	assert.Equal(t, "ООО Ромашка", rows[1][1])
	assert.Equal(t, "EXT-7", rows[2][5])
}
