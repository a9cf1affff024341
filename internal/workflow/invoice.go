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

// InvoiceService drives the invoice approval module: listing billable
// students, creating invoices, approving and rejecting them.
type InvoiceService struct {
	drv   Driver
	batch *Batch
	log   logger.Logger

	// approveDelay paces consecutive approval confirmations.
	approveDelay time.Duration
}

// NewInvoiceService wires the service.
func NewInvoiceService(drv Driver, batch *Batch, l logger.Logger) *InvoiceService {
	if l == nil {
		l = logger.NewNop()
	}
	return &InvoiceService{drv: drv, batch: batch, log: l, approveDelay: 500 * time.Millisecond}
}

// GetInvoiceCandidates lists students with billable lessons in a period.
func (s *InvoiceService) GetInvoiceCandidates(ctx context.Context, period string) ([]model.InvoiceCandidate, error) {
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("donem YYYY-MM formatında olmalı: %q", period)
	}
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()

	if err := s.drv.NavigateTo(ctx, routes.InvoiceApproval); err != nil {
		return nil, err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return nil, err
	}
	html, found, err := s.drv.OuterHTML(ctx, "#grdFaturaListesi")
	if err != nil {
		return nil, err
	}
	if !found {
		// An empty grid renders no table element at all.
		return []model.InvoiceCandidate{}, nil
	}
	candidates := parse.InvoiceCandidates(html)
	s.log.Info("fatura adayları listelendi", "donem", period, "count", len(candidates))
	return candidates, nil
}

// CreateInvoice fills and submits the creation form for one student. On
// success the portal's echoed invoice details are returned in Data.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req model.CreateInvoiceRequest) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()
	return s.createLocked(ctx, req)
}

func (s *InvoiceService) createLocked(ctx context.Context, req model.CreateInvoiceRequest) (model.OperationResult, error) {
	if err := req.Validate(); err != nil {
		return model.Failure("Geçersiz fatura isteği", err.Error()), nil
	}
	s.log.Info("fatura oluşturuluyor", "key", req.NaturalKey())

	if err := s.drv.NavigateTo(ctx, routes.InvoiceApproval); err != nil {
		return model.OperationResult{}, err
	}

	if err := s.openCreateForm(ctx, req); err != nil {
		return model.Failure("Fatura oluşturulamadı", err.Error()), nil
	}
	if err := s.fillCreateForm(ctx, req); err != nil {
		return model.Failure("Fatura oluşturulamadı", err.Error()), nil
	}

	if err := s.drv.Click(ctx, "#btnKaydet"); err != nil {
		return model.Failure("Fatura oluşturulamadı", err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure("Fatura oluşturulamadı", err.Error()), nil
	}

	ok, msg, err := classify(ctx, s.drv)
	if err != nil {
		return model.Failure("Fatura oluşturulamadı", err.Error()), nil
	}
	if !ok {
		return model.Failure("Fatura oluşturulamadı", msg), nil
	}
	return model.OperationResult{
		Success: true,
		Message: "Fatura başarıyla oluşturuldu",
		Data:    invoiceInfoData(s.createdInfo(ctx)),
	}, nil
}

func (s *InvoiceService) openCreateForm(ctx context.Context, req model.CreateInvoiceRequest) error {
	if err := s.drv.FillField(ctx, "#txtTcAra", req.TC); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, "#btnAra"); err != nil {
		return err
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, fmt.Sprintf("#btnFaturaOlustur_%s", req.TC)); err != nil {
		return err
	}
	return s.drv.WaitForReady(ctx)
}

func (s *InvoiceService) fillCreateForm(ctx context.Context, req model.CreateInvoiceRequest) error {
	fields := []struct {
		selector string
		value    string
	}{
		{"#txtFaturaTarih", parse.FormatTurkishDate(req.InvoiceDate)},
		{"#txtFaturaSaat", req.InvoiceTime},
		{"#txtBelgeSeri", req.DocumentSerial},
		{"#txtBelgeNo", req.DocumentNo},
		{"#txtBireyselEgitimAd", req.IndividualEducationName},
		{"#txtGrupEgitimAd", req.GroupEducationName},
		{"#txtBireyselDersSayisi", strconv.Itoa(req.IndividualLessons)},
		{"#txtGrupDersSayisi", strconv.Itoa(req.GroupLessons)},
		{"#txtBireyselTelafiSayisi", strconv.Itoa(req.IndividualMakeUps)},
		{"#txtGrupTelafiSayisi", strconv.Itoa(req.GroupMakeUps)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := s.drv.FillField(ctx, f.selector, f.value); err != nil {
			return err
		}
	}
	if req.MakeUpSeparate {
		if err := s.drv.Click(ctx, "#chkTelafiAyri"); err != nil {
			return err
		}
	}
	if req.MakeUpAtEnd {
		if err := s.drv.Click(ctx, "#chkTelafiSonda"); err != nil {
			return err
		}
	}
	return nil
}

// createdInfo reads the confirmation labels the portal shows after a
// successful save. Best effort: a read failure degrades to no data.
func (s *InvoiceService) createdInfo(ctx context.Context) *model.InvoiceInfo {
	res, err := s.drv.RunScript(ctx, `({
		faturaTarih: (document.querySelector('#lblFaturaTarih') || {}).textContent || '',
		belgeSeri:   (document.querySelector('#lblBelgeSeri') || {}).textContent || '',
		belgeNo:     (document.querySelector('#lblBelgeNo') || {}).textContent || '',
		tutar:       (document.querySelector('#lblTutar') || {}).textContent || ''
	})`)
	if err != nil {
		s.log.Warn("fatura özeti okunamadı", "error", err)
		return nil
	}
	info := &model.InvoiceInfo{
		InvoiceDate:    parse.ParseTurkishDate(res.Get("faturaTarih").String()),
		DocumentSerial: res.Get("belgeSeri").String(),
		DocumentNo:     res.Get("belgeNo").String(),
		Amount:         parse.AmountOrZero(res.Get("tutar").String()),
	}
	if info.InvoiceDate == "" && info.DocumentSerial == "" && info.DocumentNo == "" && info.Amount == 0 {
		return nil
	}
	return info
}

// invoiceInfoData flattens the portal's echoed invoice details into the
// result envelope.
func invoiceInfoData(info *model.InvoiceInfo) map[string]string {
	if info == nil {
		return nil
	}
	data := map[string]string{}
	if info.InvoiceDate != "" {
		data["faturaTarih"] = info.InvoiceDate
	}
	if info.DocumentSerial != "" {
		data["belgeSeri"] = info.DocumentSerial
	}
	if info.DocumentNo != "" {
		data["belgeNo"] = info.DocumentNo
	}
	if info.Amount != 0 {
		data["faturaTutar"] = strconv.FormatFloat(info.Amount, 'f', 2, 64)
	}
	return data
}

// CreateInvoices runs creation requests through the batch orchestrator.
func (s *InvoiceService) CreateInvoices(
	ctx context.Context,
	reqs []model.CreateInvoiceRequest,
	onProgress ProgressFunc,
	stopOnError bool,
) (*Results, error) {
	items := make([]WorkItem, len(reqs))
	for i, r := range reqs {
		items[i] = r
	}
	return s.batch.Run(ctx, items, func(ctx context.Context, item WorkItem) (model.OperationResult, error) {
		return s.CreateInvoice(ctx, item.(model.CreateInvoiceRequest))
	}, onProgress, stopOnError)
}

// ApprovePendingInvoices approves every approvable invoice of a period. One
// failed approval does not stop the rest; the summary carries per-invoice
// errors.
func (s *InvoiceService) ApprovePendingInvoices(ctx context.Context, period string) (*model.ApprovalSummary, error) {
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("donem YYYY-MM formatında olmalı: %q", period)
	}
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()

	if err := s.drv.NavigateTo(ctx, routes.InvoiceApproval); err != nil {
		return nil, err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return nil, err
	}

	res, err := s.drv.RunScript(ctx, `Array.from(document.querySelectorAll('.btn-onayla:not(.disabled)'))
		.map(b => b.getAttribute('data-id'))
		.filter(Boolean)`)
	if err != nil {
		return nil, err
	}
	var ids []string
	if res.IsArray() {
		for _, v := range res.Array() {
			if id := v.String(); id != "" {
				ids = append(ids, id)
			}
		}
	}

	summary := &model.ApprovalSummary{Errors: []string{}}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.approveOne(ctx, id); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("fatura %s onaylanamadı: %v", id, err))
			s.log.Warn("fatura onayı başarısız", "id", id, "error", err)
		} else {
			summary.Approved++
		}
		if i < len(ids)-1 {
			if err := sleepCtx(ctx, s.approveDelay); err != nil {
				return summary, err
			}
		}
	}
	s.log.Info("fatura onayı tamamlandı", "donem", period, "approved", summary.Approved, "failed", summary.Failed)
	return summary, nil
}

func (s *InvoiceService) approveOne(ctx context.Context, id string) error {
	if err := s.drv.Click(ctx, fmt.Sprintf("#btnOnayla_%s", id)); err != nil {
		return err
	}
	if err := s.drv.WaitForElement(ctx, ".modal-confirm"); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, ".btn-confirm-yes"); err != nil {
		return err
	}
	return s.drv.WaitForReady(ctx)
}

// RejectInvoice rejects one invoice with a reason.
func (s *InvoiceService) RejectInvoice(ctx context.Context, period, invoiceID, reason string) (model.OperationResult, error) {
	if err := s.drv.Acquire(ctx); err != nil {
		return model.OperationResult{}, err
	}
	defer s.drv.Release()

	if err := s.drv.NavigateTo(ctx, routes.InvoiceApproval); err != nil {
		return model.OperationResult{}, err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}

	sel := fmt.Sprintf("#btnReddet_%s", invoiceID)
	found, err := s.drv.ElementExists(ctx, sel)
	if err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if !found {
		return model.Failure("Reddedilecek fatura bulunamadı", ""), nil
	}
	if err := s.drv.Click(ctx, sel); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if err := s.drv.WaitForElement(ctx, ".modal-reject"); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if err := s.drv.FillField(ctx, "#txtRedNedeni", reason); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if err := s.drv.Click(ctx, ".btn-reject-confirm"); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if err := s.drv.WaitForReady(ctx); err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}

	ok, msg, err := classify(ctx, s.drv)
	if err != nil {
		return model.Failure("Fatura reddedilemedi", err.Error()), nil
	}
	if !ok {
		return model.Failure("Fatura reddedilemedi", msg), nil
	}
	return model.OperationResult{Success: true, Message: "Fatura reddedildi"}, nil
}

// GetInvoiceList lists the invoices already created for a period.
func (s *InvoiceService) GetInvoiceList(ctx context.Context, period string) ([]model.Invoice, error) {
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("donem YYYY-MM formatında olmalı: %q", period)
	}
	if err := s.drv.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.drv.Release()

	if err := s.drv.NavigateTo(ctx, routes.InvoiceApproval); err != nil {
		return nil, err
	}
	if err := filterPeriod(ctx, s.drv, period); err != nil {
		return nil, err
	}
	html, found, err := s.drv.OuterHTML(ctx, "#grdFaturalar")
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.Invoice{}, nil
	}
	invoices := parse.InvoiceList(html)
	for i := range invoices {
		invoices[i].Period = period
	}
	return invoices, nil
}
