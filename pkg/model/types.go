package model

import "fmt"

// SessionKind of an education session.
type SessionKind int

const (
	SessionIndividual SessionKind = 1 // bireysel
	SessionGroup      SessionKind = 2 // grup
)

// EntryOperation tells a workflow what to do with a work item.
type EntryOperation int

const (
	OperationCreate EntryOperation = iota
	OperationDelete
)

// BepFormKind selects one of the three BEP form variants.
type BepFormKind string

const (
	BepPerformanceRecord     BepFormKind = "ek4"
	BepDevelopmentMonitoring BepFormKind = "ek5"
	BepPortfolioChecklist    BepFormKind = "ek6"
)

// Valid reports whether the kind names one of the known form variants.
func (k BepFormKind) Valid() bool {
	switch k {
	case BepPerformanceRecord, BepDevelopmentMonitoring, BepPortfolioChecklist:
		return true
	}
	return false
}

// OperationResult is the outcome of processing one work item. Business-level
// rejections are reported here, never as errors; Error carries raw diagnostic
// text for operators.
type OperationResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Failure builds a failed result with a user message and diagnostic detail.
func Failure(message, detail string) OperationResult {
	return OperationResult{Success: false, Message: message, Error: detail}
}

// Goal is one educational goal with its target behaviors.
type Goal struct {
	GoalID    string   `json:"hedefId"`
	GoalName  string   `json:"hedefAd"`
	Behaviors []string `json:"hedefDavranislar"`
}

// EducationEntry is one education-information record to transfer to the
// portal. The natural key (student TC + date + time) identifies it across
// re-submissions.
type EducationEntry struct {
	Date        string         `json:"tarih"` // ISO date
	Time        string         `json:"saat"`  // HH:mm
	SessionType SessionKind    `json:"seansTip"`
	Operation   EntryOperation `json:"durum"`

	MakeUp      bool `json:"telafi"`
	MakeUpMonth int  `json:"telafiAy,omitempty"`
	MakeUpYear  int  `json:"telafiYil,omitempty"`

	StudentTC    string `json:"ogrenciTcKimlikNo"`
	StudentName  string `json:"ogrenciAdSoyad"`
	EducatorTC   string `json:"egitimciTcKimlikNo"`
	EducatorName string `json:"egitimciAdSoyad"`

	ProgramID   string `json:"programId"`
	ModuleID    string `json:"modulId"`
	SectionID   string `json:"bolumId"`
	ClassroomID string `json:"derslikId"`

	Goals []Goal `json:"hedefler"`

	Note string `json:"aciklama,omitempty"`
}

// NaturalKey keys batch results and idempotent re-submission.
func (e EducationEntry) NaturalKey() string {
	return fmt.Sprintf("%s_%s_%s", e.StudentTC, e.Date, e.Time)
}

// Validate checks the fields the portal form cannot do without.
func (e EducationEntry) Validate() error {
	switch {
	case len(e.StudentTC) != 11:
		return fmt.Errorf("ogrenciTcKimlikNo 11 haneli olmalı")
	case e.Date == "":
		return fmt.Errorf("tarih gerekli")
	case e.Time == "":
		return fmt.Errorf("saat gerekli")
	}
	if e.Operation == OperationCreate {
		switch {
		case len(e.EducatorTC) != 11:
			return fmt.Errorf("egitimciTcKimlikNo 11 haneli olmalı")
		case e.ProgramID == "":
			return fmt.Errorf("programId gerekli")
		case e.ModuleID == "":
			return fmt.Errorf("modulId gerekli")
		case e.SectionID == "":
			return fmt.Errorf("bolumId gerekli")
		case e.ClassroomID == "":
			return fmt.Errorf("derslikId gerekli")
		}
	}
	return nil
}

// Student is a row scraped from the portal's student list.
type Student struct {
	TC               string `json:"tcKimlikNo"`
	FirstName        string `json:"ad"`
	LastName         string `json:"soyad"`
	FatherName       string `json:"babaAdi"`
	RegistrationDate string `json:"kayitTarihi"` // ISO date
}

// ReportInfo is the disability assessment block of a student detail page.
// Absence of a report is normal, not an error.
type ReportInfo struct {
	ReportNumbers   []string `json:"raporNo"`
	ReportDate      string   `json:"raporTarihi,omitempty"`
	DisabilityGroup string   `json:"engelGrubu,omitempty"`
	DisabilityRate  int      `json:"engelOrani,omitempty"`
}

// SchoolInfo is the school block of a student detail page.
type SchoolInfo struct {
	SchoolName string `json:"okulAdi"`
	Class      string `json:"sinif,omitempty"`
	SchoolType string `json:"okulTuru,omitempty"`
}

// StudentDetail is a student with the optional detail sub-records.
type StudentDetail struct {
	Student
	Report *ReportInfo `json:"raporBilgisi,omitempty"`
	School *SchoolInfo `json:"okulBilgisi,omitempty"`
}

// SyncResult summarizes a full student sync run.
type SyncResult struct {
	Success     bool            `json:"success"`
	SyncedCount int             `json:"syncedCount"`
	FailedCount int             `json:"failedCount"`
	Students    []StudentDetail `json:"students"`
	Errors      []string        `json:"errors"`
}

// InvoiceCandidate is a student eligible for billing in a period.
type InvoiceCandidate struct {
	StudentID         string `json:"ogrenciId"`
	TC                string `json:"tcKimlikNo"`
	FullName          string `json:"adSoyad"`
	IndividualLessons int    `json:"bireyselDersSayisi"`
	GroupLessons      int    `json:"grupDersSayisi"`
	IndividualMakeUps int    `json:"bireyselTelafiSayisi"`
	GroupMakeUps      int    `json:"grupTelafiSayisi"`
}

// Invoice is a row of the portal's invoice list.
type Invoice struct {
	TC                string  `json:"tcKimlikNo"`
	FullName          string  `json:"adSoyad"`
	Period            string  `json:"donem,omitempty"`
	IndividualLessons int     `json:"bireyselDersSayisi"`
	GroupLessons      int     `json:"grupDersSayisi"`
	InvoiceNo         string  `json:"faturaNo"`
	Amount            float64 `json:"faturaTutar"`
}

// InvoiceInfo is what the portal reports for a freshly created invoice.
type InvoiceInfo struct {
	InvoiceDate    string  `json:"faturaTarih"`
	DocumentSerial string  `json:"belgeSeri"`
	DocumentNo     string  `json:"belgeNo"`
	Amount         float64 `json:"faturaTutar"`
}

// CreateInvoiceRequest drives the invoice creation form for one student.
type CreateInvoiceRequest struct {
	Period         string `json:"donem"` // YYYY-MM
	InvoiceDate    string `json:"faturaTarih"`
	InvoiceTime    string `json:"faturaSaat,omitempty"`
	DocumentSerial string `json:"belgeSeri,omitempty"`
	DocumentNo     string `json:"belgeNo,omitempty"`

	IndividualEducationName string `json:"bireyselEgitimAd"`
	GroupEducationName      string `json:"grupEgitimAd"`
	MakeUpSeparate          bool   `json:"telafiAyriOlustur"`
	MakeUpAtEnd             bool   `json:"telafiSondaOlustur"`

	TC       string `json:"tcKimlikNo"`
	FullName string `json:"adSoyad"`

	IndividualLessons int `json:"bireyselDersSayisi"`
	GroupLessons      int `json:"grupDersSayisi"`
	IndividualMakeUps int `json:"bireyselTelafiDersSayisi"`
	GroupMakeUps      int `json:"grupTelafiDersSayisi"`
}

// NaturalKey keys invoice batch results.
func (r CreateInvoiceRequest) NaturalKey() string {
	return fmt.Sprintf("%s_%s", r.TC, r.Period)
}

// Validate checks the invoice creation request.
func (r CreateInvoiceRequest) Validate() error {
	switch {
	case len(r.TC) != 11:
		return fmt.Errorf("tcKimlikNo 11 haneli olmalı")
	case !ValidPeriod(r.Period):
		return fmt.Errorf("donem YYYY-MM formatında olmalı")
	case r.InvoiceDate == "":
		return fmt.Errorf("faturaTarih gerekli")
	case r.IndividualLessons < 0 || r.GroupLessons < 0:
		return fmt.Errorf("ders sayısı negatif olamaz")
	}
	return nil
}

// ApprovalSummary aggregates a bulk invoice approval run.
type ApprovalSummary struct {
	Approved int      `json:"approved"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// BepStudent is a row of a BEP form's student list.
type BepStudent struct {
	StudentID   string `json:"ogrenciId"`
	TC          string `json:"tcKimlikNo"`
	FullName    string `json:"adSoyad"`
	ProgramID   string `json:"programId"`
	ProgramName string `json:"programAdi"`
	FormStatus  string `json:"aylikFormDurumu,omitempty"`
}

// BepWeekValue is one weekly score for a behavior.
type BepWeekValue struct {
	Week  int    `json:"hafta"`
	Value string `json:"deger"`
}

// BepBehavior is a behavior with its weekly values.
type BepBehavior struct {
	BehaviorID   string         `json:"davranisId"`
	BehaviorName string         `json:"davranisAdi"`
	Values       []BepWeekValue `json:"degerler"`
}

// BepGoal groups behaviors under a goal.
type BepGoal struct {
	GoalID    string        `json:"hedefId"`
	GoalName  string        `json:"hedefAdi"`
	Behaviors []BepBehavior `json:"davranislar"`
}

// BepSection groups goals under a program section.
type BepSection struct {
	SectionID   string    `json:"bolumId"`
	SectionName string    `json:"bolumAdi"`
	Goals       []BepGoal `json:"hedefler"`
}

// BepPerformanceRecordForm is the EK-4 payload.
type BepPerformanceRecordForm struct {
	StudentID string       `json:"ogrenciId"`
	ProgramID string       `json:"programId"`
	Period    string       `json:"donem"`
	Sections  []BepSection `json:"bolumler"`
}

// NaturalKey keys BEP batch results.
func (f BepPerformanceRecordForm) NaturalKey() string {
	return fmt.Sprintf("%s_%s", f.StudentID, f.Period)
}

// BepNarrativeSection is a free-text section of the EK-5 form.
type BepNarrativeSection struct {
	SectionID   string `json:"bolumId"`
	SectionName string `json:"bolumAdi"`
	Description string `json:"aciklama"`
}

// BepDevelopmentMonitoringForm is the EK-5 payload.
type BepDevelopmentMonitoringForm struct {
	StudentID string                `json:"ogrenciId"`
	ProgramID string                `json:"programId"`
	Period    string                `json:"donem"`
	Summary   string                `json:"ozet"`
	Sections  []BepNarrativeSection `json:"bolumler"`
}

// NaturalKey keys BEP batch results.
func (f BepDevelopmentMonitoringForm) NaturalKey() string {
	return fmt.Sprintf("%s_%s", f.StudentID, f.Period)
}

// BepProduct is one portfolio checklist product entry.
type BepProduct struct {
	ProductID   string `json:"urunId"`
	ProductName string `json:"urunAdi"`
	Date        string `json:"tarih,omitempty"`
	Description string `json:"aciklama,omitempty"`
}

// BepPortfolioChecklistForm is the EK-6 payload.
type BepPortfolioChecklistForm struct {
	StudentID string       `json:"ogrenciId"`
	ProgramID string       `json:"programId"`
	Period    string       `json:"donem"`
	Products  []BepProduct `json:"urunler"`
}

// NaturalKey keys BEP batch results.
func (f BepPortfolioChecklistForm) NaturalKey() string {
	return fmt.Sprintf("%s_%s", f.StudentID, f.Period)
}
