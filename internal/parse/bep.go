package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mebbisauto/pkg/model"
)

// BepStudents extracts the student grid shared by the three BEP form
// pages. The program cell carries the program id as a data attribute.
func BepStudents(html string) []model.BepStudent {
	out := []model.BepStudent{}
	dataRows(doc(html), 4, func(row *goquery.Selection) {
		tc := cell(row, 0)
		if tc == "" {
			return
		}
		id, _ := row.Attr("data-id")
		programCell := row.Find("td").Eq(2)
		programID, _ := programCell.Attr("data-program-id")
		out = append(out, model.BepStudent{
			StudentID:   id,
			TC:          tc,
			FullName:    cell(row, 1),
			ProgramID:   programID,
			ProgramName: strings.TrimSpace(programCell.Text()),
			FormStatus:  cell(row, 3),
		})
	})
	return out
}
