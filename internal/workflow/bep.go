package workflow

import (
	"context"
	"fmt"

	"mebbisauto/internal/logger"
	"mebbisauto/internal/parse"
	"mebbisauto/internal/routes"
	"mebbisauto/pkg/model"
)

// BepService fills the three monthly BEP forms (performance record,
// development monitoring, portfolio checklist).
type BepService struct {
	drv   Driver
	batch *Batch
	log   logger.Logger
}

// NewBepService wires the service.
func NewBepService(drv Driver, batch *Batch, l logger.Logger) *BepService {
	if l == nil {
		l = logger.NewNop()
	}
	return &BepService{drv: drv, batch: batch, log: l}
}

func formPage(kind model.BepFormKind) (routes.Page, error) {
	switch kind {
	case model.BepPerformanceRecord:
		return routes.BepPerformance, nil
	case model.BepDevelopmentMonitoring:
		return routes.BepDevelopment, nil
	case model.BepPortfolioChecklist:
		return routes.BepPortfolio, nil
	default:
		return "", fmt.Errorf("bilinmeyen form türü: %s", kind)
	}
}

// ListStudents lists the students of a BEP form page for a period, with the
// per-student monthly form status.
func (s *BepService) ListStudents(ctx context.Context, kind model.BepFormKind, period string) ([]model.BepStudent, error) {
	page, err := formPage(kind)
	if err != nil {
		return nil, err
	}
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("donem YYYY-MM formatında olmalı: %q", period)
	}
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()

	if err := s.drv.NavigateTo(ctx, page); err != nil {
		return nil, err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return nil, err
	}
	html, found, err := s.drv.OuterHTML(ctx, "#grdOgrenciListesi")
	if err != nil {
		return nil, err
	}
	if !found {
		// An empty grid renders no table element at all.
		return []model.BepStudent{}, nil
	}
	students := parse.BepStudents(html)
	s.log.Info("BEP öğrenci listesi alındı", "form", string(kind), "donem", period, "count", len(students))
	return students, nil
}

// selectStudent opens a student's form row and makes sure the expected
// program is selected. Switching programs triggers a postback that redraws
// the whole form.
func (s *BepService) selectStudent(ctx context.Context, studentID, programID string) error {
	if err := s.drv.Click(ctx, fmt.Sprintf(`tr[data-id="%s"]`, studentID)); err != nil {
		return err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return err
	}
	if programID == "" {
		return nil
	}
	res, err := s.drv.RunScript(ctx, `(document.querySelector('#ddlProgram') || {}).value || ''`)
	if err != nil {
		return err
	}
	if res.String() == programID {
		return nil
	}
	if err := s.drv.SelectOption(ctx, "#ddlProgram", programID); err != nil {
		return err
	}
	return s.drv.WaitForReady(ctx)
}

// openForm navigates to the form page, applies the period filter and opens
// the student's form.
func (s *BepService) openForm(ctx context.Context, page routes.Page, period, studentID, programID string) error {
	if !model.ValidPeriod(period) {
		return fmt.Errorf("donem YYYY-MM formatında olmalı: %q", period)
	}
	if err := s.drv.NavigateTo(ctx, page); err != nil {
		return err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return err
	}
	return s.selectStudent(ctx, studentID, programID)
}

func (s *BepService) save(ctx context.Context, failMsg, okMsg string) (model.OperationResult, error) {
	if err := s.drv.Click(ctx, "#btnKaydet"); err != nil {
		return model.Failure(failMsg, err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure(failMsg, err.Error()), nil
	}
	ok, msg, err := classify(ctx, s.drv)
	if err != nil {
		return model.Failure(failMsg, err.Error()), nil
	}
	if !ok {
		return model.Failure(failMsg, msg), nil
	}
	return model.OperationResult{Success: true, Message: okMsg}, nil
}

// SubmitPerformanceRecord fills the EK-4 weekly score grid.
func (s *BepService) SubmitPerformanceRecord(ctx context.Context, form model.BepPerformanceRecordForm) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()

	s.log.Info("performans kayıt formu aktarılıyor", "key", form.NaturalKey())
	if err := s.openForm(ctx, routes.BepPerformance, form.Period, form.StudentID, form.ProgramID); err != nil {
		return model.OperationResult{}, err
	}

	const failMsg = "Performans Kayıt Formu aktarılamadı"
	for _, section := range form.Sections {
		if err := s.drv.SelectOption(ctx, "#ddlBolum", section.SectionID); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
		if err := s.drv.WaitForReady(ctx); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
		for _, goal := range section.Goals {
			if err := s.drv.SelectOption(ctx, "#ddlHedef", goal.GoalID); err != nil {
				return model.Failure(failMsg, err.Error()), nil
			}
			if err := s.drv.WaitForReady(ctx); err != nil {
				return model.Failure(failMsg, err.Error()), nil
			}
			for _, behavior := range goal.Behaviors {
				for _, wv := range behavior.Values {
					sel := fmt.Sprintf("#txt_%s_hafta%d", behavior.BehaviorID, wv.Week)
					if err := s.drv.FillField(ctx, sel, wv.Value); err != nil {
						return model.Failure(failMsg, err.Error()), nil
					}
				}
			}
		}
	}
	return s.save(ctx, failMsg, "Performans Kayıt Formu başarıyla aktarıldı")
}

// SubmitDevelopmentMonitoring fills the EK-5 narrative form.
func (s *BepService) SubmitDevelopmentMonitoring(ctx context.Context, form model.BepDevelopmentMonitoringForm) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()

	s.log.Info("gelişim izleme formu aktarılıyor", "key", form.NaturalKey())
	if err := s.openForm(ctx, routes.BepDevelopment, form.Period, form.StudentID, form.ProgramID); err != nil {
		return model.OperationResult{}, err
	}

	const failMsg = "Gelişim İzleme Formu aktarılamadı"
	if form.Summary != "" {
		if err := s.drv.FillField(ctx, "#txtOzet", form.Summary); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
	}
	for _, section := range form.Sections {
		if err := s.drv.SelectOption(ctx, "#ddlBolum", section.SectionID); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
		if err := s.drv.WaitForReady(ctx); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
		sel := fmt.Sprintf("#txtAciklama_%s", section.SectionID)
		if err := s.drv.FillField(ctx, sel, section.Description); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
	}
	return s.save(ctx, failMsg, "Gelişim İzleme Formu başarıyla aktarıldı")
}

// SubmitPortfolioChecklist fills the EK-6 product checklist. Products with a
// date or description get those extra fields filled.
func (s *BepService) SubmitPortfolioChecklist(ctx context.Context, form model.BepPortfolioChecklistForm) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()

	s.log.Info("portfolyo kontrol listesi aktarılıyor", "key", form.NaturalKey())
	if err := s.openForm(ctx, routes.BepPortfolio, form.Period, form.StudentID, form.ProgramID); err != nil {
		return model.OperationResult{}, err
	}

	const failMsg = "Portfolyo Kontrol Listesi aktarılamadı"
	for _, product := range form.Products {
		if err := s.drv.Click(ctx, fmt.Sprintf("#chkUrun_%s", product.ProductID)); err != nil {
			return model.Failure(failMsg, err.Error()), nil
		}
		if product.Date != "" {
			sel := fmt.Sprintf("#txtTarih_%s", product.ProductID)
			if err := s.drv.FillField(ctx, sel, parse.FormatTurkishDate(product.Date)); err != nil {
				return model.Failure(failMsg, err.Error()), nil
			}
		}
		if product.Description != "" {
			sel := fmt.Sprintf("#txtAciklama_%s", product.ProductID)
			if err := s.drv.FillField(ctx, sel, product.Description); err != nil {
				return model.Failure(failMsg, err.Error()), nil
			}
		}
	}
	return s.save(ctx, failMsg, "Portfolyo Kontrol Listesi başarıyla aktarıldı")
}

// SubmitForms runs a mixed list of BEP forms through the batch orchestrator.
func (s *BepService) SubmitForms(
	ctx context.Context,
	items []WorkItem,
	onProgress ProgressFunc,
	stopOnError bool,
) (*Results, error) {
	return s.batch.Run(ctx, items, func(ctx context.Context, item WorkItem) (model.OperationResult, error) {
		switch f := item.(type) {
		case model.BepPerformanceRecordForm:
			return s.SubmitPerformanceRecord(ctx, f)
		case model.BepDevelopmentMonitoringForm:
			return s.SubmitDevelopmentMonitoring(ctx, f)
		case model.BepPortfolioChecklistForm:
			return s.SubmitPortfolioChecklist(ctx, f)
		default:
			return model.Failure("Bilinmeyen form türü", fmt.Sprintf("%T", item)), nil
		}
	}, onProgress, stopOnError)
}
