package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEducationEntryNaturalKey(t *testing.T) {
	e := EducationEntry{StudentTC: "12345678901", Date: "2026-03-10", Time: "14:00"}
	assert.Equal(t, "12345678901_2026-03-10_14:00", e.NaturalKey())
}

func TestEducationEntryValidate(t *testing.T) {
	valid := EducationEntry{
		Date: "2026-03-10", Time: "14:00",
		Operation: OperationCreate,
		StudentTC: "12345678901", EducatorTC: "98765432109",
		ProgramID: "1", ModuleID: "2", SectionID: "3", ClassroomID: "D",
	}
	require.NoError(t, valid.Validate())

	badTC := valid
	badTC.StudentTC = "123"
	assert.ErrorContains(t, badTC.Validate(), "11 haneli")

	noProgram := valid
	noProgram.ProgramID = ""
	assert.ErrorContains(t, noProgram.Validate(), "programId")

	// Deletes only need the identifying triple.
	del := EducationEntry{
		Date: "2026-03-10", Time: "14:00",
		Operation: OperationDelete,
		StudentTC: "12345678901",
	}
	assert.NoError(t, del.Validate())
}

func TestBepFormKindValid(t *testing.T) {
	assert.True(t, BepPerformanceRecord.Valid())
	assert.True(t, BepDevelopmentMonitoring.Valid())
	assert.True(t, BepPortfolioChecklist.Valid())
	assert.False(t, BepFormKind("ek9").Valid())
	assert.False(t, BepFormKind("").Valid())
}

func TestCreateInvoiceRequestValidate(t *testing.T) {
	valid := CreateInvoiceRequest{
		TC: "12345678901", Period: "2026-02", InvoiceDate: "2026-02-10",
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "12345678901_2026-02", valid.NaturalKey())

	badPeriod := valid
	badPeriod.Period = "Şubat"
	assert.ErrorContains(t, badPeriod.Validate(), "YYYY-MM")

	negative := valid
	negative.GroupLessons = -1
	assert.ErrorContains(t, negative.Validate(), "negatif")
}

func TestPeriodHelpers(t *testing.T) {
	assert.True(t, ValidPeriod("2026-02"))
	assert.False(t, ValidPeriod("2026-2"))
	assert.False(t, ValidPeriod("2026-02-01"))

	year, month := SplitPeriod("2026-02")
	assert.Equal(t, "2026", year)
	assert.Equal(t, "02", month)

	year, month = SplitPeriod("bozuk")
	assert.Empty(t, year)
	assert.Empty(t, month)
}

func TestFailure(t *testing.T) {
	res := Failure("Aktarma başarısız", "Kapasite dolu")
	assert.False(t, res.Success)
	assert.Equal(t, "Aktarma başarısız", res.Message)
	assert.Equal(t, "Kapasite dolu", res.Error)
}
