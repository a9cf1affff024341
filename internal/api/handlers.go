package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"mebbisauto/internal/jobs"
	"mebbisauto/internal/store"
	"mebbisauto/internal/workflow"
	"mebbisauto/pkg/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]string{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

func (s *Server) handleEducationSubmit(w http.ResponseWriter, r *http.Request) {
	var payload jobs.EducationBatchPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if len(payload.Entries) == 0 {
		s.fail(w, http.StatusBadRequest, "En az bir kayıt gerekli")
		return
	}
	var errs []string
	for i, e := range payload.Entries {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("kayıt %d: %v", i+1, err))
		}
	}
	if len(errs) > 0 {
		s.fail(w, http.StatusBadRequest, "Geçersiz kayıtlar var", errs...)
		return
	}

	jobID, err := s.runner.Enqueue(r.Context(), jobs.KindEducationBatch, payload)
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	s.accepted(w, jobID)
}

func (s *Server) handleStudentSync(w http.ResponseWriter, r *http.Request) {
	jobID, err := s.runner.Enqueue(r.Context(), jobs.KindStudentSync, struct{}{})
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	s.accepted(w, jobID)
}

func (s *Server) handleStudentDetail(w http.ResponseWriter, r *http.Request) {
	tc := mux.Vars(r)["tcKimlikNo"]
	if len(tc) != 11 {
		s.fail(w, http.StatusBadRequest, "tcKimlikNo 11 haneli olmalı")
		return
	}
	detail, err := s.sync.FetchStudentDetail(r.Context(), tc)
	if errors.Is(err, workflow.ErrStudentNotFound) {
		s.fail(w, http.StatusNotFound, "Öğrenci bulunamadı")
		return
	}
	if err != nil {
		s.fail(w, http.StatusBadGateway, "Öğrenci bilgisi alınamadı", err.Error())
		return
	}
	s.ok(w, detail)
}

func (s *Server) handleInvoiceCandidates(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("donem")
	if !model.ValidPeriod(period) {
		s.fail(w, http.StatusBadRequest, "donem YYYY-MM formatında olmalı")
		return
	}
	candidates, err := s.invoice.GetInvoiceCandidates(r.Context(), period)
	if err != nil {
		s.fail(w, http.StatusBadGateway, "Fatura adayları alınamadı", err.Error())
		return
	}
	s.ok(w, candidates)
}

func (s *Server) handleInvoiceList(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("donem")
	if !model.ValidPeriod(period) {
		s.fail(w, http.StatusBadRequest, "donem YYYY-MM formatında olmalı")
		return
	}
	invoices, err := s.invoice.GetInvoiceList(r.Context(), period)
	if err != nil {
		s.fail(w, http.StatusBadGateway, "Fatura listesi alınamadı", err.Error())
		return
	}
	s.ok(w, invoices)
}

func (s *Server) handleInvoiceCreate(w http.ResponseWriter, r *http.Request) {
	var payload jobs.InvoiceCreatePayload
	if !s.decode(w, r, &payload) {
		return
	}
	if len(payload.Requests) == 0 {
		s.fail(w, http.StatusBadRequest, "En az bir fatura isteği gerekli")
		return
	}
	var errs []string
	for i, req := range payload.Requests {
		if err := req.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("fatura %d: %v", i+1, err))
		}
	}
	if len(errs) > 0 {
		s.fail(w, http.StatusBadRequest, "Geçersiz fatura istekleri var", errs...)
		return
	}

	jobID, err := s.runner.Enqueue(r.Context(), jobs.KindInvoiceCreate, payload)
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	s.accepted(w, jobID)
}

func (s *Server) handleInvoiceApprove(w http.ResponseWriter, r *http.Request) {
	var payload jobs.InvoiceApprovePayload
	if !s.decode(w, r, &payload) {
		return
	}
	if !model.ValidPeriod(payload.Period) {
		s.fail(w, http.StatusBadRequest, "donem YYYY-MM formatında olmalı")
		return
	}
	jobID, err := s.runner.Enqueue(r.Context(), jobs.KindInvoiceApprove, payload)
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	s.accepted(w, jobID)
}

type rejectRequest struct {
	Period    string `json:"donem"`
	InvoiceID string `json:"faturaId"`
	Reason    string `json:"redNedeni"`
}

func (s *Server) handleInvoiceReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !s.decode(w, r, &req) {
		return
	}
	switch {
	case !model.ValidPeriod(req.Period):
		s.fail(w, http.StatusBadRequest, "donem YYYY-MM formatında olmalı")
		return
	case req.InvoiceID == "":
		s.fail(w, http.StatusBadRequest, "faturaId gerekli")
		return
	case req.Reason == "":
		s.fail(w, http.StatusBadRequest, "redNedeni gerekli")
		return
	}

	res, err := s.invoice.RejectInvoice(r.Context(), req.Period, req.InvoiceID, req.Reason)
	if err != nil {
		s.fail(w, http.StatusBadGateway, "Fatura reddedilemedi", err.Error())
		return
	}
	if !res.Success {
		s.respond(w, http.StatusUnprocessableEntity, envelope{Success: false, Message: res.Message, Errors: nonEmpty(res.Error)})
		return
	}
	s.ok(w, res)
}

func (s *Server) handleBepStudents(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("donem")
	kind := model.BepFormKind(r.URL.Query().Get("formType"))
	if !model.ValidPeriod(period) {
		s.fail(w, http.StatusBadRequest, "donem YYYY-MM formatında olmalı")
		return
	}
	if !kind.Valid() {
		s.fail(w, http.StatusBadRequest, "formType ek4, ek5 veya ek6 olmalı")
		return
	}
	students, err := s.bep.ListStudents(r.Context(), kind, period)
	if err != nil {
		s.fail(w, http.StatusBadGateway, "BEP öğrenci listesi alınamadı", err.Error())
		return
	}
	s.ok(w, students)
}

func (s *Server) handleBepSubmit(w http.ResponseWriter, r *http.Request) {
	var payload jobs.BepSubmitPayload
	if !s.decode(w, r, &payload) {
		return
	}
	jobID, err := s.runner.Enqueue(r.Context(), jobs.KindBepSubmit, payload)
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	s.accepted(w, jobID)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["jobId"]
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrJobNotFound) {
		s.fail(w, http.StatusNotFound, "İş bulunamadı")
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "İş durumu okunamadı", err.Error())
		return
	}
	s.ok(w, job)
}

func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {
	recent, err := s.store.Recent(r.Context(), 50)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "İş listesi okunamadı", err.Error())
		return
	}
	s.ok(w, recent)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.shooter == nil {
		s.fail(w, http.StatusServiceUnavailable, "Ekran görüntüsü alınamıyor")
		return
	}
	path := filepath.Join("screenshots", fmt.Sprintf("sayfa-%s.png", time.Now().Format("20060102-150405")))
	if err := s.shooter.Screenshot(r.Context(), path); err != nil {
		s.fail(w, http.StatusBadGateway, "Ekran görüntüsü alınamadı", err.Error())
		return
	}
	s.ok(w, map[string]string{"path": path})
}

func (s *Server) enqueueError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrQueueFull) {
		s.fail(w, http.StatusTooManyRequests, "İş kuyruğu dolu, daha sonra deneyin")
		return
	}
	s.fail(w, http.StatusInternalServerError, "İş kuyruğa alınamadı", err.Error())
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
