package workflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mebbisauto/internal/logger"
	"mebbisauto/internal/parse"
	"mebbisauto/internal/routes"
	"mebbisauto/pkg/model"
)

// EducationService transfers education-information records into the portal,
// one form round-trip per record.
type EducationService struct {
	drv   Driver
	batch *Batch
	log   logger.Logger

	// goalDelay is the pause after each goal row is added so the ASP.NET
	// partial postback settles before the next row.
	goalDelay time.Duration
}

// NewEducationService wires the service.
func NewEducationService(drv Driver, batch *Batch, l logger.Logger) *EducationService {
	if l == nil {
		l = logger.NewNop()
	}
	return &EducationService{drv: drv, batch: batch, log: l, goalDelay: 500 * time.Millisecond}
}

// SubmitEntry processes one entry under session exclusivity. Navigation
// failures before any form interaction propagate as errors; everything after
// the page is reached comes back as a result so batch callers keep going.
func (s *EducationService) SubmitEntry(ctx context.Context, entry model.EducationEntry) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()
	return s.submitLocked(ctx, entry)
}

func (s *EducationService) submitLocked(ctx context.Context, entry model.EducationEntry) (model.OperationResult, error) {
	if err := entry.Validate(); err != nil {
		return model.Failure("Geçersiz kayıt", err.Error()), nil
	}
	if entry.Operation == model.OperationDelete {
		return s.deleteEntry(ctx, entry)
	}
	return s.createEntry(ctx, entry)
}

func (s *EducationService) createEntry(ctx context.Context, entry model.EducationEntry) (model.OperationResult, error) {
	s.log.Info("eğitim bilgisi aktarılıyor", "key", entry.NaturalKey(), "seansTip", int(entry.SessionType))

	if err := s.drv.NavigateTo(ctx, routes.EducationEntry); err != nil {
		return model.OperationResult{}, err
	}

	steps := []func(context.Context, model.EducationEntry) error{
		s.fillParticipants,
		s.fillSchedule,
		s.fillProgram,
		s.fillGoals,
		s.fillMakeUp,
	}
	for _, step := range steps {
		if err := step(ctx, entry); err != nil {
			return model.Failure("Aktarma başarısız", err.Error()), nil
		}
	}

	if err := s.drv.Click(ctx, "#btnKaydet"); err != nil {
		return model.Failure("Aktarma başarısız", err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure("Aktarma başarısız", err.Error()), nil
	}

	ok, msg, err := classify(ctx, s.drv)
	if err != nil {
		return model.Failure("Aktarma başarısız", err.Error()), nil
	}
	if !ok {
		s.log.Warn("portal kaydı reddetti", "key", entry.NaturalKey(), "mesaj", msg)
		return model.Failure("Aktarma başarısız", msg), nil
	}
	return model.OperationResult{Success: true, Message: "Eğitim bilgisi başarıyla aktarıldı"}, nil
}

// fillParticipants looks up the student and educator by TC. Both lookups are
// postbacks that repopulate the dependent dropdowns.
func (s *EducationService) fillParticipants(ctx context.Context, entry model.EducationEntry) error {
	if err := s.drv.FillField(ctx, "#txtOgrenciTc", entry.StudentTC); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, "#btnOgrenciAra"); err != nil {
		return err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return err
	}
	if err := s.drv.FillField(ctx, "#txtEgitimciTc", entry.EducatorTC); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, "#btnEgitimciAra"); err != nil {
		return err
	}
	return s.drv.WaitForReady(ctx)
}

func (s *EducationService) fillSchedule(ctx context.Context, entry model.EducationEntry) error {
	if err := s.drv.FillField(ctx, "#txtTarih", parse.FormatTurkishDate(entry.Date)); err != nil {
		return err
	}
	if err := s.drv.FillField(ctx, "#txtSaat", entry.Time); err != nil {
		return err
	}
	if err := s.drv.SelectOption(ctx, "#ddlSeansTipi", strconv.Itoa(int(entry.SessionType))); err != nil {
		return err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return err
	}
	return s.drv.SelectOption(ctx, "#ddlDerslik", entry.ClassroomID)
}

// fillProgram walks the cascading program/module/section selects. Each
// selection triggers a postback that populates the next one.
func (s *EducationService) fillProgram(ctx context.Context, entry model.EducationEntry) error {
	cascade := []struct {
		selector string
		value    string
	}{
		{"#ddlProgram", entry.ProgramID},
		{"#ddlModul", entry.ModuleID},
		{"#ddlBolum", entry.SectionID},
	}
	for _, c := range cascade {
		if err := s.drv.SelectOption(ctx, c.selector, c.value); err != nil {
			return err
		}
		if err := s.drv.WaitForReady(ctx); err != nil {
			return err
		}
	}
	return nil
}

// fillGoals adds the goal rows one by one. Behavior checkboxes may be absent
// for goals without selectable behaviors; missing ones are skipped.
func (s *EducationService) fillGoals(ctx context.Context, entry model.EducationEntry) error {
	for _, goal := range entry.Goals {
		if err := s.drv.SelectOption(ctx, "#ddlHedef", goal.GoalID); err != nil {
			return err
		}
		for _, behavior := range goal.Behaviors {
			sel := fmt.Sprintf(`input[type="checkbox"][value="%s"]`, behavior)
			ok, err := s.drv.ElementExists(ctx, sel)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := s.drv.Click(ctx, sel); err != nil {
				return err
			}
		}
		if err := s.drv.Click(ctx, "#btnHedefEkle"); err != nil {
			return err
		}
		if err := sleepCtx(ctx, s.goalDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *EducationService) fillMakeUp(ctx context.Context, entry model.EducationEntry) error {
	if !entry.MakeUp {
		return nil
	}
	if err := s.drv.SelectOption(ctx, "#ddlTelafiAy", strconv.Itoa(entry.MakeUpMonth)); err != nil {
		return err
	}
	return s.drv.SelectOption(ctx, "#ddlTelafiYil", strconv.Itoa(entry.MakeUpYear))
}

// deleteEntry removes a record from the per-student education list. An
// absent delete button means the record was never there, which is reported
// as a clean failure rather than an error.
func (s *EducationService) deleteEntry(ctx context.Context, entry model.EducationEntry) (model.OperationResult, error) {
	s.log.Info("eğitim bilgisi siliniyor", "key", entry.NaturalKey())

	if err := s.drv.NavigateTo(ctx, routes.StudentEducationList); err != nil {
		return model.OperationResult{}, err
	}
	if err := s.drv.FillField(ctx, "#txtTcKimlik", entry.StudentTC); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.FillField(ctx, "#txtTarih", parse.FormatTurkishDate(entry.Date)); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.Click(ctx, "#btnAra"); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}

	rowSel := fmt.Sprintf(`tr[data-date="%s"][data-time="%s"] .btn-sil`, entry.Date, entry.Time)
	found, err := s.drv.ElementExists(ctx, rowSel)
	if err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if !found {
		return model.Failure("Silinecek kayıt bulunamadı", ""), nil
	}

	if err := s.drv.Click(ctx, rowSel); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.WaitForElement(ctx, ".modal-confirm"); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.Click(ctx, ".btn-confirm-yes"); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure("Silme başarısız", err.Error()), nil
	}

	return model.OperationResult{Success: true, Message: "Kayıt başarıyla silindi"}, nil
}

// SubmitBatch runs a list of entries through the batch orchestrator. Session
// exclusivity is taken per item so other operations can interleave between
// items of a long batch.
func (s *EducationService) SubmitBatch(
	ctx context.Context,
	entries []model.EducationEntry,
	onProgress ProgressFunc,
	stopOnError bool,
) (*Results, error) {
	items := make([]WorkItem, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	return s.batch.Run(ctx, items, func(ctx context.Context, item WorkItem) (model.OperationResult, error) {
		return s.SubmitEntry(ctx, item.(model.EducationEntry))
	}, onProgress, stopOnError)
}
