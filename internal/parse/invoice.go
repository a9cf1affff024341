package parse

import (
	"github.com/PuerkitoBio/goquery"

	"mebbisauto/pkg/model"
)

// InvoiceCandidates extracts the billable-student grid for a period. The
// row's data-id attribute carries the portal-internal student id.
func InvoiceCandidates(html string) []model.InvoiceCandidate {
	out := []model.InvoiceCandidate{}
	dataRows(doc(html), 6, func(row *goquery.Selection) {
		tc := cell(row, 0)
		if tc == "" {
			return
		}
		id, _ := row.Attr("data-id")
		out = append(out, model.InvoiceCandidate{
			StudentID:         id,
			TC:                tc,
			FullName:          cell(row, 1),
			IndividualLessons: IntOrZero(cell(row, 2)),
			GroupLessons:      IntOrZero(cell(row, 3)),
			IndividualMakeUps: IntOrZero(cell(row, 4)),
			GroupMakeUps:      IntOrZero(cell(row, 5)),
		})
	})
	return out
}

// InvoiceList extracts the created-invoice grid for a period.
func InvoiceList(html string) []model.Invoice {
	out := []model.Invoice{}
	dataRows(doc(html), 6, func(row *goquery.Selection) {
		tc := cell(row, 0)
		if tc == "" {
			return
		}
		out = append(out, model.Invoice{
			TC:                tc,
			FullName:          cell(row, 1),
			IndividualLessons: IntOrZero(cell(row, 2)),
			GroupLessons:      IntOrZero(cell(row, 3)),
			InvoiceNo:         cell(row, 4),
			Amount:            AmountOrZero(cell(row, 5)),
		})
	})
	return out
}
