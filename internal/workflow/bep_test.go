package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebbisauto/pkg/model"
)

func TestListStudentsMapsFormKindToPage(t *testing.T) {
	cases := []struct {
		kind model.BepFormKind
		page string
	}{
		{model.BepPerformanceRecord, "navigate:bep-performance"},
		{model.BepDevelopmentMonitoring, "navigate:bep-development"},
		{model.BepPortfolioChecklist, "navigate:bep-portfolio"},
	}
	for _, c := range cases {
		drv := newFakeDriver()
		drv.htmls["#grdOgrenciListesi"] = `<table><tr><th></th></tr></table>`

		svc := NewBepService(drv, NewBatch(0, nil), nil)
		_, err := svc.ListStudents(context.Background(), c.kind, "2026-02")
		require.NoError(t, err)
		assert.True(t, drv.called(c.page))
	}
}

func TestListStudentsAbsentGridIsEmpty(t *testing.T) {
	drv := newFakeDriver()
	svc := NewBepService(drv, NewBatch(0, nil), nil)

	students, err := svc.ListStudents(context.Background(), model.BepPerformanceRecord, "2026-02")
	require.NoError(t, err, "a grid-less page means zero rows, not a failure")
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestListStudentsUnknownForm(t *testing.T) {
	svc := NewBepService(newFakeDriver(), NewBatch(0, nil), nil)
	_, err := svc.ListStudents(context.Background(), model.BepFormKind("ek9"), "2026-02")
	require.Error(t, err)
}

func TestSubmitPerformanceRecordFillsWeeklyGrid(t *testing.T) {
	drv := newFakeDriver()
	drv.exists[selSuccessBanner] = true
	drv.scripts["ddlProgram"] = `"99"`

	form := model.BepPerformanceRecordForm{
		StudentID: "55",
		ProgramID: "12",
		Period:    "2026-02",
		Sections: []model.BepSection{{
			SectionID: "B1",
			Goals: []model.BepGoal{{
				GoalID: "H1",
				Behaviors: []model.BepBehavior{{
					BehaviorID: "D1",
					Values: []model.BepWeekValue{
						{Week: 1, Value: "3"},
						{Week: 2, Value: "4"},
					},
				}},
			}},
		}},
	}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitPerformanceRecord(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Performans Kayıt Formu başarıyla aktarıldı", res.Message)

	assert.True(t, drv.called(`click:tr[data-id="55"]`))
	// The page shows program 99, so the expected program must be selected.
	assert.True(t, drv.called("select:#ddlProgram=12"))
	assert.True(t, drv.called("select:#ddlBolum=B1"))
	assert.True(t, drv.called("select:#ddlHedef=H1"))
	assert.True(t, drv.called("fill:#txt_D1_hafta1=3"))
	assert.True(t, drv.called("fill:#txt_D1_hafta2=4"))
}

func TestSubmitPerformanceRecordSkipsProgramSwitchWhenAlreadySelected(t *testing.T) {
	drv := newFakeDriver()
	drv.exists[selSuccessBanner] = true
	drv.scripts["ddlProgram"] = `"12"`

	form := model.BepPerformanceRecordForm{StudentID: "55", ProgramID: "12", Period: "2026-02"}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitPerformanceRecord(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, drv.called("select:#ddlProgram"))
}

func TestSubmitDevelopmentMonitoring(t *testing.T) {
	drv := newFakeDriver()
	drv.exists[selSuccessBanner] = true

	form := model.BepDevelopmentMonitoringForm{
		StudentID: "55",
		Period:    "2026-02",
		Summary:   "Genel ilerleme iyi",
		Sections: []model.BepNarrativeSection{
			{SectionID: "B1", Description: "Okuma hedefinde ilerleme var"},
		},
	}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitDevelopmentMonitoring(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Gelişim İzleme Formu başarıyla aktarıldı", res.Message)
	assert.True(t, drv.called("fill:#txtOzet=Genel ilerleme iyi"))
	assert.True(t, drv.called("fill:#txtAciklama_B1=Okuma hedefinde ilerleme var"))
}

func TestSubmitPortfolioChecklist(t *testing.T) {
	drv := newFakeDriver()
	drv.exists[selSuccessBanner] = true

	form := model.BepPortfolioChecklistForm{
		StudentID: "55",
		Period:    "2026-02",
		Products: []model.BepProduct{
			{ProductID: "U1", Date: "2026-02-15", Description: "Boyama çalışması"},
			{ProductID: "U2"},
		},
	}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitPortfolioChecklist(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, drv.called("click:#chkUrun_U1"))
	assert.True(t, drv.called("fill:#txtTarih_U1=15.02.2026"))
	assert.True(t, drv.called("fill:#txtAciklama_U1=Boyama çalışması"))
	assert.True(t, drv.called("click:#chkUrun_U2"))
	assert.False(t, drv.called("fill:#txtTarih_U2"))
}

func TestSubmitPortfolioChecklistRejection(t *testing.T) {
	drv := newFakeDriver()
	drv.texts[selErrorBanner] = "Form bu dönem için kilitli"

	form := model.BepPortfolioChecklistForm{StudentID: "55", Period: "2026-02"}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitPortfolioChecklist(context.Background(), form)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Form bu dönem için kilitli", res.Error)
}

func TestSubmitFormsMixedBatch(t *testing.T) {
	drv := newFakeDriver()
	drv.exists[selSuccessBanner] = true

	items := []WorkItem{
		model.BepPerformanceRecordForm{StudentID: "1", Period: "2026-02"},
		model.BepDevelopmentMonitoringForm{StudentID: "2", Period: "2026-02"},
		model.BepPortfolioChecklistForm{StudentID: "3", Period: "2026-02"},
	}

	svc := NewBepService(drv, NewBatch(0, nil), nil)
	res, err := svc.SubmitForms(context.Background(), items, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Len())
	assert.Equal(t, 0, res.FailedCount())
	assert.Equal(t, []string{"1_2026-02", "2_2026-02", "3_2026-02"}, res.Keys())
}
