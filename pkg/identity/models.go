package identity

import "time"

// Patient is the registry entry behind every other service's patient_id.
// AadhaarToken is an irreversible HMAC of the Aadhaar number; the number
// itself is never stored.
type Patient struct {
	ID              string     `json:"id" gorm:"primaryKey;column:id"`
	Mobile          string     `json:"mobile" gorm:"column:mobile;uniqueIndex"`
	Email           string     `json:"email,omitempty" gorm:"column:email"`
	FirstName       string     `json:"first_name" gorm:"column:first_name"`
	LastName        string     `json:"last_name" gorm:"column:last_name"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty" gorm:"column:date_of_birth"`
	Gender          string     `json:"gender,omitempty" gorm:"column:gender"`
	AadhaarToken    string     `json:"-" gorm:"column:aadhaar_token;index"`
	AadhaarLinked   bool       `json:"aadhaar_linked" gorm:"column:aadhaar_linked"`
	AadhaarLinkedAt *time.Time `json:"aadhaar_linked_at,omitempty" gorm:"column:aadhaar_linked_at"`
	Verified        bool       `json:"verified" gorm:"column:verified"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}
