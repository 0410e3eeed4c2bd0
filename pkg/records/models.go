package records

import (
	"time"

	"gorm.io/datatypes"
)

type Category string

const (
	CategoryLabReport        Category = "LAB_REPORT"
	CategoryPrescription     Category = "PRESCRIPTION"
	CategoryImaging          Category = "IMAGING"
	CategoryDischargeSummary Category = "DISCHARGE_SUMMARY"
	CategoryVaccination      Category = "VACCINATION"
	CategoryConsultation     Category = "CONSULTATION"
	CategoryOther            Category = "OTHER"
)

// Categories lists the accepted record categories in display order.
var Categories = []Category{
	CategoryLabReport,
	CategoryPrescription,
	CategoryImaging,
	CategoryDischargeSummary,
	CategoryVaccination,
	CategoryConsultation,
	CategoryOther,
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
	StatusError     Status = "ERROR"
)

type ShareStatus string

const (
	SharePending ShareStatus = "PENDING"
	ShareGranted ShareStatus = "GRANTED"
	ShareRevoked ShareStatus = "REVOKED"
	ShareExpired ShareStatus = "EXPIRED"
)

// HealthRecord is one uploaded document's metadata and extraction output.
// File bytes live in external object storage; only the reference is kept.
type HealthRecord struct {
	ID              string            `json:"id" gorm:"primaryKey;column:id"`
	PatientID       string            `json:"patient_id" gorm:"column:patient_id;index"`
	UploadedBy      string            `json:"uploaded_by" gorm:"column:uploaded_by"`
	Title           string            `json:"title" gorm:"column:title"`
	Category        Category          `json:"category" gorm:"column:category;index"`
	Description     string            `json:"description" gorm:"column:description"`
	FileURL         string            `json:"file_url" gorm:"column:file_url"`
	FileName        string            `json:"file_name" gorm:"column:file_name"`
	FileSize        int64             `json:"file_size" gorm:"column:file_size"`
	FileType        string            `json:"file_type" gorm:"column:file_type"`
	RecordDate      time.Time         `json:"record_date" gorm:"column:record_date"`
	ProviderName    string            `json:"provider_name" gorm:"column:provider_name"`
	DoctorName      string            `json:"doctor_name" gorm:"column:doctor_name"`
	Status          Status            `json:"status" gorm:"column:status;index"`
	ProcessingError string            `json:"processing_error,omitempty" gorm:"column:processing_error"`
	OCRData         datatypes.JSONMap `json:"ocr_data" gorm:"column:ocr_data"`
	ExtractedValues datatypes.JSONMap `json:"extracted_values" gorm:"column:extracted_values"`
	Tags            datatypes.JSON    `json:"tags" gorm:"column:tags"`
	Notes           string            `json:"notes" gorm:"column:notes"`
	CreatedAt       time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (HealthRecord) TableName() string {
	return "health_records"
}

// RecordShare is a consent grant over a set of records for one provider.
type RecordShare struct {
	ID            string         `json:"id" gorm:"primaryKey;column:id"`
	PatientID     string         `json:"patient_id" gorm:"column:patient_id;index"`
	ProviderName  string         `json:"provider_name" gorm:"column:provider_name"`
	RecordIDs     datatypes.JSON `json:"record_ids" gorm:"column:record_ids"`
	Purpose       string         `json:"purpose" gorm:"column:purpose"`
	Status        ShareStatus    `json:"status" gorm:"column:status;index"`
	AllowDownload bool           `json:"allow_download" gorm:"column:allow_download"`
	GrantedAt     *time.Time     `json:"granted_at,omitempty" gorm:"column:granted_at"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty" gorm:"column:expires_at"`
	CreatedAt     time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (RecordShare) TableName() string {
	return "record_shares"
}
