package recipients_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/areamail-cli/internal/recipients"
	"github.com/KaramelBytes/areamail-cli/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fallback = recipients.Contact{To: []string{"crm@example.com"}, Cc: []string{"lead@example.com"}}

func TestLoad_CSVWithHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pic.csv")
	content := "NO,AREA,EMAIL,CC\n" +
		"1,West,west@example.com; west2@example.com,\n" +
		"2,  jawa   barat ,jabar@example.com,boss@example.com\n" +
		"3,West,west@example.com,\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	d, err := recipients.Load(p, sheet.Selector{}, fallback)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	c, ok := d.Lookup("WEST")
	require.True(t, ok)
	assert.Equal(t, []string{"west@example.com", "west2@example.com"}, c.To)
	assert.Equal(t, fallback.Cc, c.Cc)

	c, ok = d.Lookup("JAWA BARAT")
	require.True(t, ok)
	assert.Equal(t, []string{"boss@example.com"}, c.Cc)

	c, ok = d.Lookup("EAST")
	assert.False(t, ok)
	assert.Equal(t, fallback, c)
}

func TestLoad_XLSXPositional(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pic.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "PIC 2025"))
	require.NoError(t, f.SetSheetRow("PIC 2025", "A1", &[]any{"EAST", "east@example.com"}))
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	d, err := recipients.Load(p, sheet.Selector{Name: "PIC 2025"}, fallback)
	require.NoError(t, err)
	c, ok := d.Lookup("east")
	require.True(t, ok)
	assert.Equal(t, []string{"east@example.com"}, c.To)
}

func TestParseAddresses(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, recipients.ParseAddresses(" a@x.com;b@x.com, A@x.com "))
	assert.Empty(t, recipients.ParseAddresses(""))
	assert.Equal(t, []string{"Budi Santoso <budi@x.com>", "c@x.com"},
		recipients.ParseAddresses("Budi Santoso <budi@x.com>\r\nc@x.com"))
}
