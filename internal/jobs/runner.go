// Package jobs queues long-running portal operations behind job ids so HTTP
// clients get an immediate acknowledgment and poll for the outcome. A single
// worker drains the queue: the portal session is stateful, so jobs must not
// overlap.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mebbisauto/internal/logger"
	"mebbisauto/internal/store"
	"mebbisauto/internal/workflow"
	"mebbisauto/pkg/model"
)

// Job kinds the runner executes.
const (
	KindEducationBatch = "education-batch"
	KindStudentSync    = "student-sync"
	KindInvoiceCreate  = "invoice-create"
	KindInvoiceApprove = "invoice-approve"
	KindBepSubmit      = "bep-submit"
)

// ErrQueueFull reports a saturated job queue.
var ErrQueueFull = errors.New("iş kuyruğu dolu")

// EducationBatchPayload drives a KindEducationBatch job.
type EducationBatchPayload struct {
	Entries     []model.EducationEntry `json:"entries"`
	StopOnError bool                   `json:"hataDurumundaDur"`
}

// InvoiceCreatePayload drives a KindInvoiceCreate job.
type InvoiceCreatePayload struct {
	Requests    []model.CreateInvoiceRequest `json:"faturalar"`
	StopOnError bool                         `json:"hataDurumundaDur"`
}

// InvoiceApprovePayload drives a KindInvoiceApprove job.
type InvoiceApprovePayload struct {
	Period string `json:"donem"`
}

// BepSubmitPayload drives a KindBepSubmit job. Exactly one of the form
// slices is populated, matching FormType.
type BepSubmitPayload struct {
	FormType    model.BepFormKind                    `json:"formType"`
	Performance []model.BepPerformanceRecordForm     `json:"performansFormlari,omitempty"`
	Development []model.BepDevelopmentMonitoringForm `json:"gelisimFormlari,omitempty"`
	Portfolio   []model.BepPortfolioChecklistForm    `json:"portfolyoFormlari,omitempty"`
	StopOnError bool                                 `json:"hataDurumundaDur"`
}

// Services are the workflow services jobs execute against.
type Services struct {
	Education *workflow.EducationService
	Sync      *workflow.StudentSyncService
	Invoice   *workflow.InvoiceService
	Bep       *workflow.BepService
}

// Runner owns the queue and the single worker goroutine.
type Runner struct {
	store *store.Store
	svcs  Services
	log   logger.Logger

	queue chan string
	wg    sync.WaitGroup
}

// NewRunner builds a runner with the given queue capacity.
func NewRunner(st *store.Store, svcs Services, queueSize int, l logger.Logger) *Runner {
	if l == nil {
		l = logger.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Runner{store: st, svcs: svcs, log: l, queue: make(chan string, queueSize)}
}

// Start launches the worker. It drains until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-r.queue:
				r.execute(ctx, id)
			}
		}
	}()
}

// Wait blocks until the worker has stopped.
func (r *Runner) Wait() { r.wg.Wait() }

// Enqueue persists a job and hands it to the worker. The returned id is
// what clients poll with.
func (r *Runner) Enqueue(ctx context.Context, kind string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("iş verisi kodlanamadı: %w", err)
	}
	job := &store.Job{ID: uuid.NewString(), Kind: kind, Payload: string(raw)}
	if err := r.store.Create(ctx, job); err != nil {
		return "", err
	}
	select {
	case r.queue <- job.ID:
	default:
		_ = r.store.MarkFailed(ctx, job.ID, ErrQueueFull.Error())
		return "", ErrQueueFull
	}
	r.log.Info("iş kuyruğa alındı", "jobId", job.ID, "kind", kind)
	return job.ID, nil
}

func (r *Runner) execute(ctx context.Context, id string) {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		r.log.Error("iş kaydı okunamadı", "jobId", id, "error", err)
		return
	}
	if err := r.store.MarkActive(ctx, id); err != nil {
		r.log.Error("iş aktif işaretlenemedi", "jobId", id, "error", err)
		return
	}
	r.log.Info("iş başladı", "jobId", id, "kind", job.Kind)

	result, err := r.dispatch(ctx, job)
	if err != nil {
		r.log.Error("iş başarısız", "jobId", id, "kind", job.Kind, "error", err)
		_ = r.store.MarkFailed(ctx, id, err.Error())
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		_ = r.store.MarkFailed(ctx, id, fmt.Sprintf("sonuç kodlanamadı: %v", err))
		return
	}
	_ = r.store.MarkCompleted(ctx, id, string(raw))
	r.log.Info("iş tamamlandı", "jobId", id, "kind", job.Kind)
}

func (r *Runner) dispatch(ctx context.Context, job *store.Job) (any, error) {
	onProgress := func(current, total int, _ workflow.WorkItem) {
		_ = r.store.SetProgress(ctx, job.ID, current, total)
	}

	switch job.Kind {
	case KindEducationBatch:
		var p EducationBatchPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return nil, fmt.Errorf("iş verisi çözülemedi: %w", err)
		}
		res, err := r.svcs.Education.SubmitBatch(ctx, p.Entries, onProgress, p.StopOnError)
		if err != nil {
			return nil, err
		}
		return res.Ordered(), nil

	case KindStudentSync:
		return r.svcs.Sync.FullSync(ctx, func(current, total int, _ string) {
			_ = r.store.SetProgress(ctx, job.ID, current, total)
		})

	case KindInvoiceCreate:
		var p InvoiceCreatePayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return nil, fmt.Errorf("iş verisi çözülemedi: %w", err)
		}
		res, err := r.svcs.Invoice.CreateInvoices(ctx, p.Requests, onProgress, p.StopOnError)
		if err != nil {
			return nil, err
		}
		return res.Ordered(), nil

	case KindInvoiceApprove:
		var p InvoiceApprovePayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return nil, fmt.Errorf("iş verisi çözülemedi: %w", err)
		}
		return r.svcs.Invoice.ApprovePendingInvoices(ctx, p.Period)

	case KindBepSubmit:
		var p BepSubmitPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return nil, fmt.Errorf("iş verisi çözülemedi: %w", err)
		}
		items, err := p.items()
		if err != nil {
			return nil, err
		}
		res, err := r.svcs.Bep.SubmitForms(ctx, items, onProgress, p.StopOnError)
		if err != nil {
			return nil, err
		}
		return res.Ordered(), nil

	default:
		return nil, fmt.Errorf("bilinmeyen iş türü: %s", job.Kind)
	}
}

func (p BepSubmitPayload) items() ([]workflow.WorkItem, error) {
	var items []workflow.WorkItem
	switch p.FormType {
	case model.BepPerformanceRecord:
		for _, f := range p.Performance {
			items = append(items, f)
		}
	case model.BepDevelopmentMonitoring:
		for _, f := range p.Development {
			items = append(items, f)
		}
	case model.BepPortfolioChecklist:
		for _, f := range p.Portfolio {
			items = append(items, f)
		}
	default:
		return nil, fmt.Errorf("bilinmeyen form türü: %s", p.FormType)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("gönderilecek form yok")
	}
	return items, nil
}
