// Package routes maps logical portal pages to URLs. The table is data, not
// code: portal URLs change, so callers inject it at construction instead of
// compiling it into the session.
package routes

import "fmt"

// Page is a logical portal page name.
type Page string

const (
	Login                Page = "login"
	Main                 Page = "main"
	ModuleHome           Page = "module-home"
	EducationEntry       Page = "education-entry"
	StudentEducationList Page = "student-education-list"
	InvoiceApproval      Page = "invoice-approval"
	BepPerformance       Page = "bep-performance"
	BepDevelopment       Page = "bep-development"
	BepPortfolio         Page = "bep-portfolio"
)

// Table resolves logical pages to URLs.
type Table map[Page]string

// Defaults returns the production MEBBIS URLs.
func Defaults() Table {
	return Table{
		Login:                "https://mebbis.meb.gov.tr/Login.aspx",
		Main:                 "https://mebbis.meb.gov.tr/Kullanici/UygulamaListesi.aspx",
		ModuleHome:           "https://mebbis.meb.gov.tr/OzelEgitim/Anasayfa.aspx",
		EducationEntry:       "https://mebbis.meb.gov.tr/OzelEgitim/EgitimBilgisiGiris.aspx",
		StudentEducationList: "https://mebbis.meb.gov.tr/OzelEgitim/BireyGoreEgitimListesi.aspx",
		InvoiceApproval:      "https://mebbis.meb.gov.tr/OzelEgitim/FaturaOnay.aspx",
		BepPerformance:       "https://mebbis.meb.gov.tr/OzelEgitim/BEP/PerformansKayitFormu.aspx",
		BepDevelopment:       "https://mebbis.meb.gov.tr/OzelEgitim/BEP/GelisimIzlemeFormu.aspx",
		BepPortfolio:         "https://mebbis.meb.gov.tr/OzelEgitim/BEP/PortfolyoKontrolListesi.aspx",
	}
}

// URL looks a page up, failing loudly on an unknown name so a typo never
// turns into a navigation to "".
func (t Table) URL(p Page) (string, error) {
	u, ok := t[p]
	if !ok || u == "" {
		return "", fmt.Errorf("bilinmeyen sayfa: %s", p)
	}
	return u, nil
}
