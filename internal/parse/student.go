package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mebbisauto/pkg/model"
)

// StudentList extracts students from the student list grid. Rows without a
// TC number are dropped.
func StudentList(html string) []model.Student {
	out := []model.Student{}
	dataRows(doc(html), 5, func(row *goquery.Selection) {
		tc := cell(row, 0)
		if tc == "" {
			return
		}
		out = append(out, model.Student{
			TC:               tc,
			FirstName:        cell(row, 1),
			LastName:         cell(row, 2),
			FatherName:       cell(row, 3),
			RegistrationDate: ParseTurkishDate(cell(row, 4)),
		})
	})
	return out
}

// StudentDetail reads the student info panel's labels. ok is false when the
// panel carries no TC number, which the caller treats as record-not-found
// rather than an empty success.
func StudentDetail(html string) (model.Student, bool) {
	d := doc(html)
	label := func(id string) string {
		return strings.TrimSpace(d.Find(id).Text())
	}
	s := model.Student{
		TC:               label("#lblTcKimlik"),
		FirstName:        label("#lblAd"),
		LastName:         label("#lblSoyad"),
		FatherName:       label("#lblBabaAdi"),
		RegistrationDate: ParseTurkishDate(label("#lblKayitTarihi")),
	}
	return s, s.TC != ""
}

// ReportInfo extracts the disability report grid. A student with no report
// on file yields nil, which is a normal outcome.
func ReportInfo(html string) *model.ReportInfo {
	info := &model.ReportInfo{}
	dataRows(doc(html), 4, func(row *goquery.Selection) {
		no := cell(row, 0)
		if no == "" {
			return
		}
		info.ReportNumbers = append(info.ReportNumbers, no)
		if info.ReportDate == "" {
			info.ReportDate = ParseTurkishDate(cell(row, 1))
		}
		if info.DisabilityGroup == "" {
			info.DisabilityGroup = cell(row, 2)
		}
		if info.DisabilityRate == 0 {
			info.DisabilityRate = IntOrZero(cell(row, 3))
		}
	})
	if len(info.ReportNumbers) == 0 {
		return nil
	}
	return info
}

// SchoolInfo reads the school panel's labels; nil when the student has no
// school record.
func SchoolInfo(html string) *model.SchoolInfo {
	d := doc(html)
	info := &model.SchoolInfo{
		SchoolName: strings.TrimSpace(d.Find("#lblOkulAdi").Text()),
		Class:      strings.TrimSpace(d.Find("#lblSinif").Text()),
		SchoolType: strings.TrimSpace(d.Find("#lblOkulTuru").Text()),
	}
	if info.SchoolName == "" {
		return nil
	}
	return info
}
