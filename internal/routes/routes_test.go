package routes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsCoverEveryPage(t *testing.T) {
	table := Defaults()
	for _, p := range []Page{
		Login, Main, ModuleHome, EducationEntry, StudentEducationList,
		InvoiceApproval, BepPerformance, BepDevelopment, BepPortfolio,
	} {
		url, err := table.URL(p)
		require.NoError(t, err, "page %s", p)
		assert.True(t, strings.HasPrefix(url, "https://mebbis.meb.gov.tr/"), "page %s", p)
	}
}

func TestUnknownPage(t *testing.T) {
	_, err := Defaults().URL(Page("yok"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bilinmeyen sayfa")
}

func TestInjectedTableOverrides(t *testing.T) {
	table := Table{Login: "http://localhost:8080/login"}
	url, err := table.URL(Login)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/login", url)
}
