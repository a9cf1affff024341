package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mebbisauto/internal/logger"
	"mebbisauto/internal/parse"
	"mebbisauto/internal/routes"
	"mebbisauto/pkg/model"
)

// ErrStudentNotFound reports a TC lookup that matched no record. Callers
// distinguish it from infrastructure failures.
var ErrStudentNotFound = errors.New("öğrenci kaydı bulunamadı")

// StudentSyncService pulls the institution's student roster and per-student
// detail out of the portal.
type StudentSyncService struct {
	drv Driver
	log logger.Logger

	// detailDelay paces per-student detail fetches during a full sync.
	detailDelay time.Duration
}

// NewStudentSyncService wires the service.
func NewStudentSyncService(drv Driver, l logger.Logger) *StudentSyncService {
	if l == nil {
		l = logger.NewNop()
	}
	return &StudentSyncService{drv: drv, log: l, detailDelay: 500 * time.Millisecond}
}

// FetchStudents scrapes the full student list.
func (s *StudentSyncService) FetchStudents(ctx context.Context) ([]model.Student, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()
	return s.fetchStudentsLocked(ctx)
}

func (s *StudentSyncService) fetchStudentsLocked(ctx context.Context) ([]model.Student, error) {
	if err := s.drv.NavigateTo(ctx, routes.ModuleHome); err != nil {
		return nil, err
	}
	if err := s.drv.Click(ctx, "#menuOgrenciListesi"); err != nil {
		return nil, err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return nil, err
	}
	html, found, err := s.drv.OuterHTML(ctx, "#grdOgrenciListesi")
	if err != nil {
		return nil, err
	}
	if !found {
		// An empty grid renders no table element at all.
		return []model.Student{}, nil
	}
	students := parse.StudentList(html)
	s.log.Info("öğrenci listesi alındı", "count", len(students))
	return students, nil
}

// FetchStudentDetail looks one student up by TC and reads the info panel
// plus the optional report and school tabs. A missing report or school tab
// degrades to a nil sub-record, not a failure.
func (s *StudentSyncService) FetchStudentDetail(ctx context.Context, tc string) (*model.StudentDetail, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()
	return s.fetchDetailLocked(ctx, tc)
}

func (s *StudentSyncService) fetchDetailLocked(ctx context.Context, tc string) (*model.StudentDetail, error) {
	if err := s.drv.NavigateTo(ctx, routes.ModuleHome); err != nil {
		return nil, err
	}
	if err := s.drv.FillField(ctx, "#txtTcKimlik", tc); err != nil {
		return nil, err
	}
	if err := s.drv.Click(ctx, "#btnAra"); err != nil {
		return nil, err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return nil, err
	}

	found, err := s.drv.ElementExists(ctx, "#pnlOgrenciBilgileri")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrStudentNotFound
	}

	html, _, err := s.drv.OuterHTML(ctx, "#pnlOgrenciBilgileri")
	if err != nil {
		return nil, err
	}
	student, ok := parse.StudentDetail(html)
	if !ok {
		return nil, ErrStudentNotFound
	}

	detail := &model.StudentDetail{Student: student}
	detail.Report = s.fetchReport(ctx, tc)
	detail.School = s.fetchSchool(ctx, tc)
	return detail, nil
}

// fetchReport is tolerant: any failure reading the tab logs and yields nil,
// since many students legitimately have no report on file.
func (s *StudentSyncService) fetchReport(ctx context.Context, tc string) *model.ReportInfo {
	if err := s.drv.Click(ctx, "#tabRaporlar"); err != nil {
		s.log.Warn("rapor sekmesi açılamadı", "tc", tc, "error", err)
		return nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		s.log.Warn("rapor sekmesi yüklenemedi", "tc", tc, "error", err)
		return nil
	}
	html, found, err := s.drv.OuterHTML(ctx, "#grdRaporlar")
	if err != nil || !found {
		return nil
	}
	return parse.ReportInfo(html)
}

func (s *StudentSyncService) fetchSchool(ctx context.Context, tc string) *model.SchoolInfo {
	if err := s.drv.Click(ctx, "#tabOkulBilgileri"); err != nil {
		s.log.Warn("okul sekmesi açılamadı", "tc", tc, "error", err)
		return nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		s.log.Warn("okul sekmesi yüklenemedi", "tc", tc, "error", err)
		return nil
	}
	html, found, err := s.drv.OuterHTML(ctx, "#pnlOkulBilgileri")
	if err != nil || !found {
		return nil
	}
	return parse.SchoolInfo(html)
}

// FullSync fetches the roster, then the detail of every student. Per-student
// failures are collected rather than aborting the run; Success is true only
// when every student synced.
func (s *StudentSyncService) FullSync(ctx context.Context, onProgress func(current, total int, tc string)) (*model.SyncResult, error) {
	students, err := s.FetchStudents(ctx)
	if err != nil {
		return nil, err
	}

	result := &model.SyncResult{Students: []model.StudentDetail{}, Errors: []string{}}
	total := len(students)
	for i, st := range students {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if onProgress != nil {
			onProgress(i+1, total, st.TC)
		}

		detail, err := s.FetchStudentDetail(ctx, st.TC)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", st.TC, err))
			s.log.Warn("öğrenci detayı alınamadı", "tc", st.TC, "error", err)
		} else {
			result.SyncedCount++
			result.Students = append(result.Students, *detail)
		}

		if i < total-1 {
			if err := sleepCtx(ctx, s.detailDelay); err != nil {
				return result, err
			}
		}
	}
	result.Success = result.FailedCount == 0
	s.log.Info("öğrenci senkronizasyonu tamamlandı", "synced", result.SyncedCount, "failed", result.FailedCount)
	return result, nil
}
