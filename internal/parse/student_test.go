package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentListDropsNoiseRows(t *testing.T) {
	html := `<table id="grdOgrenciListesi">
		<tr><th>TC</th><th>Ad</th><th>Soyad</th><th>Baba</th><th>Kayıt</th></tr>
		<tr><td>12345678901</td><td>Ali</td><td>Kaya</td><td>Veli</td><td>15.09.2025</td></tr>
		<tr><td colspan="5">Toplam: 1 kayıt</td></tr>
		<tr><td></td><td>Boş</td><td>Satır</td><td>-</td><td>-</td></tr>
	</table>`

	students := StudentList(html)
	require.Len(t, students, 1)
	assert.Equal(t, "12345678901", students[0].TC)
	assert.Equal(t, "Kaya", students[0].LastName)
	assert.Equal(t, "2025-09-15", students[0].RegistrationDate)
}

func TestStudentListEmptyTable(t *testing.T) {
	students := StudentList(`<table id="grdOgrenciListesi"><tr><th>TC</th></tr></table>`)
	assert.Empty(t, students)
	assert.NotNil(t, students, "callers JSON-encode the result, so nil would render as null")
}

func TestStudentDetail(t *testing.T) {
	html := `<div id="pnlOgrenciBilgileri">
		<span id="lblTcKimlik"> 12345678901 </span>
		<span id="lblAd">Ali</span>
		<span id="lblSoyad">Kaya</span>
		<span id="lblBabaAdi">Veli</span>
		<span id="lblKayitTarihi">15.09.2025</span>
	</div>`

	s, ok := StudentDetail(html)
	require.True(t, ok)
	assert.Equal(t, "12345678901", s.TC)
	assert.Equal(t, "2025-09-15", s.RegistrationDate)

	_, ok = StudentDetail(`<div id="pnlOgrenciBilgileri"></div>`)
	assert.False(t, ok, "a panel without a TC is not a student")
}

func TestReportInfo(t *testing.T) {
	html := `<table id="grdRaporlar">
		<tr><th></th></tr>
		<tr><td>R-1</td><td>02.01.2026</td><td>Zihinsel</td><td>60</td></tr>
		<tr><td>R-2</td><td>05.03.2026</td><td>Zihinsel</td><td>60</td></tr>
	</table>`

	info := ReportInfo(html)
	require.NotNil(t, info)
	assert.Equal(t, []string{"R-1", "R-2"}, info.ReportNumbers)
	assert.Equal(t, "2026-01-02", info.ReportDate, "the first report's fields win")
	assert.Equal(t, 60, info.DisabilityRate)

	assert.Nil(t, ReportInfo(`<table><tr><th></th></tr></table>`), "no report rows means no report")
}

func TestSchoolInfo(t *testing.T) {
	html := `<div>
		<span id="lblOkulAdi">Atatürk İlkokulu</span>
		<span id="lblSinif">3-A</span>
		<span id="lblOkulTuru">İlkokul</span>
	</div>`

	info := SchoolInfo(html)
	require.NotNil(t, info)
	assert.Equal(t, "Atatürk İlkokulu", info.SchoolName)
	assert.Equal(t, "3-A", info.Class)

	assert.Nil(t, SchoolInfo(`<div><span id="lblOkulAdi"></span></div>`))
}

func TestInvoiceCandidates(t *testing.T) {
	html := `<table id="grdFaturaListesi">
		<tr><th></th><th></th><th></th><th></th><th></th><th></th></tr>
		<tr data-id="55"><td>12345678901</td><td>Ali Kaya</td><td>8</td><td>4</td><td>1</td><td>-</td></tr>
	</table>`

	got := InvoiceCandidates(html)
	require.Len(t, got, 1)
	assert.Equal(t, "55", got[0].StudentID)
	assert.Equal(t, 8, got[0].IndividualLessons)
	assert.Equal(t, 0, got[0].GroupMakeUps, "malformed counts fall back to zero")
}

func TestInvoiceList(t *testing.T) {
	html := `<table id="grdFaturalar">
		<tr><th></th><th></th><th></th><th></th><th></th><th></th></tr>
		<tr><td>12345678901</td><td>Ali Kaya</td><td>8</td><td>4</td><td>F-42</td><td>1.250,50</td></tr>
	</table>`

	got := InvoiceList(html)
	require.Len(t, got, 1)
	assert.Equal(t, "F-42", got[0].InvoiceNo)
	assert.InDelta(t, 1250.50, got[0].Amount, 0.001)
}

func TestBepStudents(t *testing.T) {
	html := `<table id="grdOgrenciListesi">
		<tr><th></th><th></th><th></th><th></th></tr>
		<tr data-id="55"><td>12345678901</td><td>Ali Kaya</td><td data-program-id="12">Dil Programı</td><td>Girilmedi</td></tr>
	</table>`

	got := BepStudents(html)
	require.Len(t, got, 1)
	assert.Equal(t, "55", got[0].StudentID)
	assert.Equal(t, "12", got[0].ProgramID)
	assert.Equal(t, "Dil Programı", got[0].ProgramName)
	assert.Equal(t, "Girilmedi", got[0].FormStatus)
}
